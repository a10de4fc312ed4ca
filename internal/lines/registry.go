// Package lines centralizes acquisition and release of GPIO line handles so
// that every exit path of a task, including failure paths, returns whatever
// was acquired exactly once.
package lines

import (
	"sync"

	"github.com/BertoldVdb/go-misc/closeflag"
	"github.com/pkg/errors"

	"github.com/denis-beurive/cion-rpi/internal/gpio"
	"github.com/denis-beurive/cion-rpi/internal/log"
)

// Registry tracks the line handles acquired on one chip. Each handle is
// exclusively owned by the task that acquired it; the registry only exists
// so a process-exit hook can force-release leftovers.
type Registry struct {
	chip gpio.Chip

	mu   sync.Mutex
	open map[*Handle]struct{}
}

func NewRegistry(chip gpio.Chip) *Registry {
	return &Registry{
		chip: chip,
		open: make(map[*Handle]struct{}),
	}
}

// Handle wraps one acquired line. Release is idempotent and nil-safe.
type Handle struct {
	line gpio.Line
	tag  string
	cf   closeflag.CloseFlag
}

func (r *Registry) track(line gpio.Line, tag string) *Handle {
	h := &Handle{line: line, tag: tag}
	h.cf.CloseFunc = func() error {
		r.mu.Lock()
		delete(r.open, h)
		r.mu.Unlock()
		return h.line.Close()
	}
	r.mu.Lock()
	r.open[h] = struct{}{}
	r.mu.Unlock()
	return h
}

// AcquireOutput claims a line in output mode, driven at initial. On failure
// nothing is retained.
func (r *Registry) AcquireOutput(offset int, tag string, initial int) (*Handle, error) {
	line, err := r.chip.RequestOutput(offset, tag, initial)
	if err != nil {
		return nil, err
	}
	return r.track(line, tag), nil
}

// AcquireInput claims a line in input mode, used for the final safety reset.
func (r *Registry) AcquireInput(offset int, tag string) (*Handle, error) {
	line, err := r.chip.RequestInput(offset, tag)
	if err != nil {
		return nil, err
	}
	return r.track(line, tag), nil
}

// AcquireWatcher claims a line in both-edge event-reporting input mode.
func (r *Registry) AcquireWatcher(offset int, tag string) (*WatchHandle, error) {
	w, err := r.chip.RequestWatcher(offset, tag)
	if err != nil {
		return nil, err
	}
	return &WatchHandle{Handle: r.track(w, tag), watcher: w}, nil
}

// ReleaseAll force-releases every handle still open. Best-effort: a failure
// on one handle does not stop the rest.
func (r *Registry) ReleaseAll() error {
	r.mu.Lock()
	leftovers := make([]*Handle, 0, len(r.open))
	for h := range r.open {
		leftovers = append(leftovers, h)
	}
	r.mu.Unlock()

	var firstErr error
	for _, h := range leftovers {
		log.Debugf("force-releasing leftover line %d (%s)", h.Offset(), h.tag)
		if err := h.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *Handle) Offset() int {
	return h.line.Offset()
}

func (h *Handle) Tag() string {
	return h.tag
}

func (h *Handle) SetValue(value int) error {
	return h.line.SetValue(value)
}

func (h *Handle) Value() (int, error) {
	return h.line.Value()
}

// Release returns the line to the chip. Safe to call from any exit path and
// any number of times; only the first call releases.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	err := h.cf.Close()
	if err == closeflag.ErrorClosed {
		return nil
	}
	return err
}

// Quiesce drives the line to 0, switches it back to input mode so it no
// longer drives the pin, and releases it. A no-op on an already released
// handle.
func (h *Handle) Quiesce() error {
	if h == nil || h.cf.IsClosed() {
		return nil
	}
	if err := h.SetValue(0); err != nil {
		h.Release()
		return err
	}
	if err := h.line.ReconfigureInput(); err != nil {
		h.Release()
		return errors.Wrapf(err, "%s: cannot set line %d back to input", h.tag, h.Offset())
	}
	return h.Release()
}

// WatchHandle is a Handle on an edge-watching line.
type WatchHandle struct {
	*Handle
	watcher gpio.Watcher
}

// Wait blocks until the next edge event and consumes it. There is no
// timeout; if the issuer never toggles, Wait never returns.
func (w *WatchHandle) Wait() (gpio.Event, error) {
	evt, ok := <-w.watcher.Events()
	if !ok {
		return gpio.Event{}, &gpio.WaitError{
			Consumer: w.tag,
			Err:      errors.New("event stream closed"),
		}
	}
	return evt, nil
}
