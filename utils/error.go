package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Domain errors surfaced by the costing and closing workflows. Handlers map
// these to HTTP status codes; callers compare with errors.Is.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyClosed     = errors.New("fiscal year already closed")
	ErrNotClosed         = errors.New("fiscal year is not closed")
	ErrClosingImbalance  = errors.New("closing entry is not balanced")
	ErrPeriodClosed      = errors.New("period is closed for posting")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
