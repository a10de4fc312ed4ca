// Package gpio is a thin facade over the GPIO character device. It exposes
// exactly the primitives the tasks need (request a line in one mode, set or
// read its value, consume edge events, release) so that tests can substitute
// an in-memory chip.
package gpio

import (
	"time"
)

// Chip grants access to the lines of one GPIO controller. A Chip is opened
// once per process, shared read-only by all tasks, and closed exactly once.
type Chip interface {
	// RequestOutput claims a line in output mode, driven at initial.
	RequestOutput(offset int, consumer string, initial int) (Line, error)
	// RequestInput claims a line in input (non-driving) mode.
	RequestInput(offset int, consumer string) (Line, error)
	// RequestWatcher claims a line in input mode with both-edge event
	// reporting.
	RequestWatcher(offset int, consumer string) (Watcher, error)
	Close() error
}

// Line is one exclusively owned digital I/O line. It must be released
// (Close) exactly once; no call is valid after that.
type Line interface {
	Offset() int
	SetValue(value int) error
	Value() (int, error)
	// ReconfigureInput switches an output line back to input mode so it no
	// longer drives the pin.
	ReconfigureInput() error
	Close() error
}

// Watcher is a Line requested with edge reporting. Events delivers one
// Event per observed transition; the channel is closed when the line is.
type Watcher interface {
	Line
	Events() <-chan Event
}

// Event records one level transition on a watched line.
type Event struct {
	Offset    int
	Rising    bool
	Timestamp time.Duration
}
