package task

import (
	"github.com/denis-beurive/cion-rpi/internal/lines"
	"github.com/denis-beurive/cion-rpi/internal/log"
)

// Relay flips an output line each time it observes an edge event on a
// separate watched input line, Count times, then leaves the output at 0 in
// input mode. The output level is process-local state starting at 0; it is
// never read back from the hardware.
type Relay struct {
	InOffset  int
	OutOffset int
	InTag     string
	OutTag    string
	Count     int
}

func (r *Relay) Name() string {
	return r.InTag
}

func (r *Relay) Run(reg *lines.Registry) error {
	out, err := reg.AcquireOutput(r.OutOffset, r.OutTag, 0)
	if err != nil {
		return err
	}
	defer out.Release()

	watcher, err := reg.AcquireWatcher(r.InOffset, r.InTag)
	if err != nil {
		return err
	}
	defer watcher.Release()

	level := 0
	for cycle := 0; cycle < r.Count; cycle++ {
		evt, err := watcher.Wait()
		if err != nil {
			return err
		}
		log.Debugf("%s [%4d] edge on line %d (rising=%v)", r.InTag, cycle, evt.Offset, evt.Rising)
		level = 1 - level
		log.Printf("%s [%4d] set %s", r.OutTag, cycle, levelName(level))
		if err := out.SetValue(level); err != nil {
			return err
		}
	}

	if err := watcher.Release(); err != nil {
		return err
	}
	// Quiesce forces the line to 0 to avoid useless current drain, then
	// leaves it in input mode.
	return out.Quiesce()
}
