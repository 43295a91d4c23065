package mcts

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an *Error so callers can branch on the failure class
// without string matching.
type Kind int

const (
	// InvalidState covers calls made against an Engine that has already
	// been stopped, or whose allocator is missing its root.
	InvalidState Kind = iota
	// NotReady covers a worker observing state_ready without a root
	// actor having been set yet.
	NotReady
	// Terminal covers an Actor.Forward returning false at the very root,
	// which is not itself an error but is surfaced through this kind
	// where callers need to distinguish it from a real failure.
	Terminal
	// IO covers transport/storage failures from the replay package
	// surfacing through a component that embeds an mcts error.
	IO
	// Cancelled covers a Run or Stop observing context cancellation.
	Cancelled
	// Fatal covers a worker panic recovered by the supervisor.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case InvalidState:
		return "invalid_state"
	case NotReady:
		return "not_ready"
	case Terminal:
		return "terminal"
	case IO:
		return "io"
	case Cancelled:
		return "cancelled"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps a Kind and an underlying cause, formatted through
// github.com/pkg/errors so Cause and stack traces survive.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mcts: %s: %s", e.kind, e.err)
}

// Kind returns the classification attached to e.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap lets errors.Is/errors.As see through to the cause.
func (e *Error) Unwrap() error { return e.err }

// newError builds a new *Error from a format string.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, err: errors.Errorf(format, args...)}
}

// wrapError attaches kind to an existing error, preserving its stack via
// pkg/errors.Wrap.
func wrapError(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, err: errors.Wrap(err, msg)}
}
