package engine

import "errors"

// ErrSuspended unwinds a run out of its definition when a durable
// sleep parks it. It is not a failure.
var ErrSuspended = errors.New("run suspended")

// NonRetriableError aborts a run immediately without consuming the
// retry budget. Used when a referenced entity no longer exists.
type NonRetriableError struct {
	Message string
}

func (e NonRetriableError) Error() string {
	return e.Message
}

func NewNonRetriableError(message string) NonRetriableError {
	return NonRetriableError{Message: message}
}

func IsNonRetriable(err error) bool {
	var nre NonRetriableError
	return errors.As(err, &nre)
}
