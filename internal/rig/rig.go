// Package rig owns the chip handle for the whole process: it opens the chip
// once, hands a line registry to the tasks, runs them in parallel and
// guarantees through its cleanup hook that no line is left driving an
// output when the process ends.
package rig

import (
	"sync"

	"github.com/BertoldVdb/go-misc/closeflag"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/multierr"

	"github.com/denis-beurive/cion-rpi/internal/gpio"
	"github.com/denis-beurive/cion-rpi/internal/lines"
	"github.com/denis-beurive/cion-rpi/internal/log"
)

// Task is one worker loop run by the rig. Run must release every line it
// acquired on every exit path.
type Task interface {
	Name() string
	Run(*lines.Registry) error
}

// Rig shares one open chip handle, read-only, across all tasks.
type Rig struct {
	id    xid.ID
	chip  gpio.Chip
	reg   *lines.Registry
	reset []int
	cf    closeflag.CloseFlag
}

// New opens the named chip and arms the cleanup hook. resetOffsets is the
// fixed set of line ids used anywhere in the program; Cleanup returns each
// of them to input mode best-effort.
func New(chipName string, resetOffsets []int) (*Rig, error) {
	chip, err := gpio.OpenChip(chipName)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open the chip %q", chipName)
	}
	return NewWithChip(chip, resetOffsets), nil
}

// NewWithChip builds a rig around an already opened chip. The rig takes
// ownership: the chip is closed by Cleanup and nowhere else.
func NewWithChip(chip gpio.Chip, resetOffsets []int) *Rig {
	r := &Rig{
		id:    xid.New(),
		chip:  chip,
		reg:   lines.NewRegistry(chip),
		reset: resetOffsets,
	}
	r.cf.CloseFunc = r.cleanup
	log.Debugf("rig %s: chip open", r.id)
	return r
}

func (r *Rig) Registry() *lines.Registry {
	return r.reg
}

// Run starts one goroutine per task and returns the first task error
// without waiting for the remaining tasks, or nil once all tasks complete.
func (r *Rig) Run(tasks ...Task) error {
	errCh := make(chan error, len(tasks))
	doneCh := make(chan struct{})

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			log.Debugf("rig %s: task %s starting", r.id, t.Name())
			if err := t.Run(r.reg); err != nil {
				errCh <- errors.Wrap(err, t.Name())
				return
			}
			log.Debugf("rig %s: task %s done", r.id, t.Name())
		}(t)
	}
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-doneCh:
		// All tasks returned; one may still have failed at the very end.
		select {
		case err := <-errCh:
			return err
		default:
			return nil
		}
	}
}

// Cleanup is the process lifecycle hook. The first call force-releases any
// line still open, best-effort resets the configured offsets to input mode
// and closes the chip; further calls are no-ops.
func (r *Rig) Cleanup() error {
	err := r.cf.Close()
	if err == closeflag.ErrorClosed {
		return nil
	}
	return err
}

func (r *Rig) cleanup() error {
	log.Debugf("rig %s: cleanup", r.id)
	if err := r.reg.ReleaseAll(); err != nil {
		log.Warnf("rig %s: could not release a leftover line: %v", r.id, err)
	}

	var errs error
	for _, offset := range r.reset {
		line, err := r.chip.RequestInput(offset, "cleanup")
		if err != nil {
			log.Warnf("rig %s: cannot reset line %d to input: %v", r.id, offset, err)
			errs = multierr.Append(errs, err)
			continue
		}
		if err := line.Close(); err != nil {
			log.Warnf("rig %s: cannot release line %d after reset: %v", r.id, offset, err)
			errs = multierr.Append(errs, err)
		}
	}

	if err := r.chip.Close(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "cannot close the chip"))
	}
	return errs
}
