// Package sim is an in-memory gpio.Chip for tests. It enforces the claims
// the real character device makes (exclusive lines, no use after release,
// no double release) and records every value driven on each line.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/denis-beurive/cion-rpi/internal/gpio"
)

var (
	ErrClaimed   = errors.New("line already claimed")
	ErrReleased  = errors.New("line released")
	ErrChipClose = errors.New("chip already closed")
)

type mode int

const (
	modeOutput mode = iota
	modeInput
	modeWatcher
)

// Chip simulates one GPIO controller.
type Chip struct {
	mu sync.Mutex

	closed     bool
	closeCount int

	claimed map[int]*Line
	// values records every level explicitly set on an offset, across
	// claims. The initial level of an output request is not recorded.
	values map[int][]int
	// inputRequests counts how many times an offset was claimed as input.
	inputRequests map[int]int
	// failures holds scripted acquisition errors per offset.
	failures map[int]error

	watchers map[int]*Watcher
}

func NewChip() *Chip {
	return &Chip{
		claimed:       make(map[int]*Line),
		values:        make(map[int][]int),
		inputRequests: make(map[int]int),
		failures:      make(map[int]error),
		watchers:      make(map[int]*Watcher),
	}
}

// FailAcquire makes every subsequent request for offset fail with err.
func (c *Chip) FailAcquire(offset int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[offset] = err
}

// Values returns the sequence of levels set on offset so far.
func (c *Chip) Values(offset int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.values[offset]))
	copy(out, c.values[offset])
	return out
}

// InputRequests returns how many times offset was claimed in input mode,
// counting reconfigurations of an output line.
func (c *Chip) InputRequests(offset int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputRequests[offset]
}

// Claimed reports whether offset is currently held by a consumer.
func (c *Chip) Claimed(offset int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.claimed[offset]
	return ok
}

// CloseCount returns how many times Close was called on the chip.
func (c *Chip) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

// Raise injects one edge event on a watched offset. It reports whether a
// watcher was listening and had queue space.
func (c *Chip) Raise(offset int, rising bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.watchers[offset]
	if w == nil {
		return false
	}
	evt := gpio.Event{Offset: offset, Rising: rising, Timestamp: time.Duration(time.Now().UnixNano())}
	select {
	case w.events <- evt:
		return true
	default:
		return false
	}
}

func (c *Chip) request(offset int, consumer string, m mode, initial int) (*Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &gpio.AcquisitionError{Consumer: consumer, Offset: offset, Err: ErrChipClose}
	}
	if err := c.failures[offset]; err != nil {
		return nil, &gpio.AcquisitionError{Consumer: consumer, Offset: offset, Err: err}
	}
	if _, ok := c.claimed[offset]; ok {
		return nil, &gpio.AcquisitionError{Consumer: consumer, Offset: offset, Err: ErrClaimed}
	}
	l := &Line{chip: c, offset: offset, consumer: consumer, mode: m, level: initial}
	c.claimed[offset] = l
	if m != modeOutput {
		c.inputRequests[offset]++
	}
	return l, nil
}

func (c *Chip) RequestOutput(offset int, consumer string, initial int) (gpio.Line, error) {
	return c.request(offset, consumer, modeOutput, initial)
}

func (c *Chip) RequestInput(offset int, consumer string) (gpio.Line, error) {
	return c.request(offset, consumer, modeInput, 0)
}

func (c *Chip) RequestWatcher(offset int, consumer string) (gpio.Watcher, error) {
	l, err := c.request(offset, consumer, modeWatcher, 0)
	if err != nil {
		return nil, err
	}
	w := &Watcher{Line: l, events: make(chan gpio.Event, 16)}
	l.watcher = w
	c.mu.Lock()
	c.watchers[offset] = w
	c.mu.Unlock()
	return w, nil
}

func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
	if c.closed {
		return ErrChipClose
	}
	c.closed = true
	return nil
}

// Line is one simulated line. All methods fail once the line is released.
type Line struct {
	chip     *Chip
	offset   int
	consumer string
	mode     mode
	level    int
	released bool
	watcher  *Watcher
}

func (l *Line) Offset() int {
	return l.offset
}

func (l *Line) SetValue(value int) error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.released {
		return &gpio.IOError{Consumer: l.consumer, Offset: l.offset, Op: "set", Err: ErrReleased}
	}
	if l.mode != modeOutput {
		return &gpio.IOError{Consumer: l.consumer, Offset: l.offset, Op: "set",
			Err: fmt.Errorf("line %d is not an output", l.offset)}
	}
	l.level = value
	l.chip.values[l.offset] = append(l.chip.values[l.offset], value)
	return nil
}

func (l *Line) Value() (int, error) {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.released {
		return 0, &gpio.IOError{Consumer: l.consumer, Offset: l.offset, Op: "get", Err: ErrReleased}
	}
	return l.level, nil
}

func (l *Line) ReconfigureInput() error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.released {
		return ErrReleased
	}
	l.mode = modeInput
	l.chip.inputRequests[l.offset]++
	return nil
}

func (l *Line) Close() error {
	l.chip.mu.Lock()
	defer l.chip.mu.Unlock()
	if l.released {
		return ErrReleased
	}
	l.released = true
	delete(l.chip.claimed, l.offset)
	if l.watcher != nil {
		delete(l.chip.watchers, l.offset)
		close(l.watcher.events)
	}
	return nil
}

// Watcher is a simulated edge-watching line; events are injected with
// Chip.Raise.
type Watcher struct {
	*Line
	events chan gpio.Event
}

func (w *Watcher) Events() <-chan gpio.Event {
	return w.events
}
