package resource

import (
	"fmt"
	"strings"
)

// Kind categorizes a resource error
type Kind string

const (
	KindAllocation      Kind = "allocation"       // the memory allocator rejected a request
	KindInvalidArgument Kind = "invalid_argument" // zero size, bad alignment, nil resource
	KindOutOfRange      Kind = "out_of_range"     // access past the end of a buffer or span
	KindNotAllocated    Kind = "not_allocated"    // operation on a zero or borrowed resource
	KindNotMapped       Kind = "not_mapped"       // unmap without a matching map
	KindUnknownHandle   Kind = "unknown_handle"   // handle not issued by this allocator
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrAllocation      = &Error{Kind: KindAllocation}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrOutOfRange      = &Error{Kind: KindOutOfRange}
	ErrNotAllocated    = &Error{Kind: KindNotAllocated}
	ErrNotMapped       = &Error{Kind: KindNotMapped}
	ErrUnknownHandle   = &Error{Kind: KindUnknownHandle}
)

// Error is the structured error returned by this package and by MemoryAllocator
// implementations.
type Error struct {
	Op     string
	Kind   Kind
	Size   uint64
	Usage  Usage
	Detail string
	Cause  error
}

func newError(op string, kind Kind, format string, args ...any) *Error {
	e := &Error{Op: op, Kind: kind}
	if len(args) > 0 {
		e.Detail = fmt.Sprintf(format, args...)
	} else {
		e.Detail = format
	}
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteByte('[')
		b.WriteString(e.Op)
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Size != 0 || e.Usage != 0 {
		fmt.Fprintf(&b, " (size=%d", e.Size)
		if e.Usage != 0 {
			fmt.Fprintf(&b, ", usage=%s", e.Usage)
		}
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target with an Op only
// matches errors raised by that operation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return e.Kind == t.Kind
}
