package bracefmt

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalancedBraces reports a closing brace with no open block.
	ErrUnbalancedBraces = errors.New("unbalanced braces")
	// ErrUnclosedBraces reports open blocks remaining at end of input.
	ErrUnclosedBraces = errors.New("unclosed braces")
	// ErrClosed reports use of a Writer after Close.
	ErrClosed = errors.New("writer closed")
)

// BraceError locates a nesting error in the input stream.
type BraceError struct {
	// Offset is the input byte offset, counted from the first byte written.
	Offset int64
	// Depth is the nesting depth when the error was detected.
	Depth int
	Err   error
}

func (e *BraceError) Error() string {
	return fmt.Sprintf("%v at offset %d (depth %d)", e.Err, e.Offset, e.Depth)
}

func (e *BraceError) Unwrap() error {
	return e.Err
}
