package gpio

import (
	"fmt"
)

// AcquisitionError means a line could not be obtained or switched to the
// requested mode. Nothing is retained when it is returned.
type AcquisitionError struct {
	Consumer string
	Offset   int
	Err      error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("%s: cannot acquire line %d: %v", e.Consumer, e.Offset, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// IOError means a set or get on an already acquired line failed.
type IOError struct {
	Consumer string
	Offset   int
	Op       string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: cannot %s line %d: %v", e.Consumer, e.Op, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WaitError means a blocking wait for an edge event failed, e.g. because
// the line was released underneath the waiter.
type WaitError struct {
	Consumer string
	Err      error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("%s: error while waiting for an event: %v", e.Consumer, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}
