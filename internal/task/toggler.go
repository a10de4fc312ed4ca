// Package task holds the two worker loops of the rig: the periodic output
// toggler and the edge-driven relay. Each task acquires its own lines from
// the registry, runs a fixed number of cycles and quiesces its lines on the
// way out, whatever the exit path.
package task

import (
	"time"

	"github.com/denis-beurive/cion-rpi/internal/lines"
	"github.com/denis-beurive/cion-rpi/internal/log"
)

// Toggler drives one output line through alternating levels, Count times,
// one Period apart, then leaves the line at 0 in input mode.
type Toggler struct {
	Offset int
	Tag    string
	Period time.Duration
	Count  int

	// sleep is the primitive used by the resumable wait; nil means
	// time.Sleep. Tests substitute a partial sleeper.
	sleep func(time.Duration)
}

func (t *Toggler) Name() string {
	return t.Tag
}

// SetSleep overrides the sleep primitive. The toggler still waits the full
// period per cycle even if the primitive returns early.
func (t *Toggler) SetSleep(sleep func(time.Duration)) {
	t.sleep = sleep
}

func (t *Toggler) Run(reg *lines.Registry) error {
	out, err := reg.AcquireOutput(t.Offset, t.Tag, 0)
	if err != nil {
		return err
	}
	defer out.Release()

	for cycle := 0; cycle < t.Count; cycle++ {
		level := cycle % 2
		log.Printf("%s [%4d] set %s", t.Tag, cycle, levelName(level))
		if err := out.SetValue(level); err != nil {
			return err
		}
		t.sleepFull(t.Period)
	}

	// Quiesce forces the line to 0 to avoid useless current drain, then
	// leaves it in input mode.
	return out.Quiesce()
}

// sleepFull waits a cumulative Period even when the underlying sleep
// primitive returns before the requested duration has elapsed.
func (t *Toggler) sleepFull(d time.Duration) {
	sleep := t.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		sleep(remaining)
	}
}

func levelName(level int) string {
	if level != 0 {
		return "up"
	}
	return "down"
}
