package expreplay

import "errors"

// Error implements errors unique to an experience replay buffer.
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errEmpty error = errors.New("buffer empty")

var errInsufficientData = errors.New("fewer stored transitions than " +
	"batch size")

// IsInsufficientData returns whether or not an error reports that a
// buffer holds fewer transitions than the batch size requested from
// Sample.
func IsInsufficientData(err error) bool {
	if replayErr, ok := err.(*Error); ok {
		err = replayErr.Err
	}
	return err == errInsufficientData
}

// IsEmpty returns whether or not an error reports that a replay buffer
// is empty.
func IsEmpty(err error) bool {
	if replayErr, ok := err.(*Error); ok {
		err = replayErr.Err
	}
	return err == errEmpty
}
