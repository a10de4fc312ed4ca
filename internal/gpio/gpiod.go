package gpio

import (
	"fmt"
	"time"

	"github.com/jar-o/limlog"
	"github.com/warthog618/gpiod"
)

// Depth of the per-watcher event queue. The kernel keeps its own FIFO; this
// one only decouples the event handler goroutine from the waiting task.
const eventQueueDepth = 16

// OpenChip opens the named GPIO character device, e.g. "gpiochip0".
func OpenChip(name string) (Chip, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, err
	}
	ll := limlog.NewLimlog()
	ll.SetLimiter("dropped-events", 1, 1*time.Second, 4)
	return &gpiodChip{chip: c, ll: ll}, nil
}

type gpiodChip struct {
	chip *gpiod.Chip
	ll   *limlog.Limlog
}

func (c *gpiodChip) RequestOutput(offset int, consumer string, initial int) (Line, error) {
	l, err := c.chip.RequestLine(offset,
		gpiod.AsOutput(initial),
		gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, &AcquisitionError{Consumer: consumer, Offset: offset, Err: err}
	}
	return &gpiodLine{line: l, consumer: consumer}, nil
}

func (c *gpiodChip) RequestInput(offset int, consumer string) (Line, error) {
	l, err := c.chip.RequestLine(offset,
		gpiod.AsInput,
		gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, &AcquisitionError{Consumer: consumer, Offset: offset, Err: err}
	}
	return &gpiodLine{line: l, consumer: consumer}, nil
}

func (c *gpiodChip) RequestWatcher(offset int, consumer string) (Watcher, error) {
	events := make(chan Event, eventQueueDepth)
	handler := func(evt gpiod.LineEvent) {
		e := Event{
			Offset:    evt.Offset,
			Rising:    evt.Type == gpiod.LineEventRisingEdge,
			Timestamp: evt.Timestamp,
		}
		select {
		case events <- e:
		default:
			// The consumer is lagging behind the hardware; drop the event
			// rather than block the handler.
			c.ll.InfoL("dropped-events",
				fmt.Sprintf("%s: event queue full, dropping edge event on line %d", consumer, evt.Offset))
		}
	}
	l, err := c.chip.RequestLine(offset,
		gpiod.WithBothEdges,
		gpiod.WithConsumer(consumer),
		gpiod.WithEventHandler(handler))
	if err != nil {
		return nil, &AcquisitionError{Consumer: consumer, Offset: offset, Err: err}
	}
	return &gpiodWatcher{
		gpiodLine: gpiodLine{line: l, consumer: consumer},
		events:    events,
	}, nil
}

func (c *gpiodChip) Close() error {
	return c.chip.Close()
}

type gpiodLine struct {
	line     *gpiod.Line
	consumer string
}

func (l *gpiodLine) Offset() int {
	return l.line.Offset()
}

func (l *gpiodLine) SetValue(value int) error {
	if err := l.line.SetValue(value); err != nil {
		return &IOError{Consumer: l.consumer, Offset: l.Offset(), Op: "set", Err: err}
	}
	return nil
}

func (l *gpiodLine) Value() (int, error) {
	v, err := l.line.Value()
	if err != nil {
		return 0, &IOError{Consumer: l.consumer, Offset: l.Offset(), Op: "get", Err: err}
	}
	return v, nil
}

func (l *gpiodLine) ReconfigureInput() error {
	return l.line.Reconfigure(gpiod.AsInput)
}

func (l *gpiodLine) Close() error {
	return l.line.Close()
}

type gpiodWatcher struct {
	gpiodLine
	events chan Event
}

func (w *gpiodWatcher) Events() <-chan Event {
	return w.events
}

func (w *gpiodWatcher) Close() error {
	err := w.gpiodLine.Close()
	// The event handler is not invoked after Close returns, so the channel
	// can be closed to unblock any remaining waiter.
	close(w.events)
	return err
}
