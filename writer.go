package bracefmt

import (
	"fmt"
	"io"
)

const maxRetainedOutput = 64 * 1024

// Writer re-indents brace-delimited text written to it and forwards the
// result to the wrapped sink.
//
// Every '{' and '}' is placed on its own line, each line is indented with one
// tab per open block, and leading whitespace of input lines is dropped.
// State carries across Write calls, so output does not depend on how the
// input is split into chunks.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	st     state
	offset int64
	err    error
	closed bool

	out    []byte
	outArr [512]byte
}

type flusher interface {
	Flush() error
}

// NewWriter returns a Writer that forwards formatted output to w. The Writer
// owns w from then on; write, flush and close it through the Writer only.
func NewWriter(w io.Writer) *Writer {
	f := &Writer{}
	f.Reset(w)
	return f
}

// Reset discards all state and makes the Writer forward to w.
func (f *Writer) Reset(w io.Writer) {
	f.w = w
	f.st = state{}
	f.offset = 0
	f.err = nil
	f.closed = false
	if f.out == nil || cap(f.out) > maxRetainedOutput {
		f.out = f.outArr[:0]
	}
}

// Depth returns the number of currently open blocks.
func (f *Writer) Depth() int {
	return f.st.depth
}

// AtLineStart reports whether nothing has been written yet on the current
// output line.
func (f *Writer) AtLineStart() bool {
	return f.st.mode == modeLineStart
}

// Write formats p and forwards the result to the sink in a single write.
//
// A '}' with no open block stops processing: output for the preceding bytes
// is forwarded and Write returns their count with a *BraceError wrapping
// ErrUnbalancedBraces. The Writer remains usable afterwards.
//
// A sink error is returned with n == 0 and is sticky. The internal state has
// already advanced past p at that point, so p must not be written again.
func (f *Writer) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if f.err != nil {
		return 0, f.err
	}
	out := f.out[:0]
	st := f.st
	n := 0
	var braceErr error
	for n < len(p) {
		next, consumed, o, err := step(st, p[n], out)
		out = o
		if err != nil {
			braceErr = &BraceError{Offset: f.offset + int64(n), Depth: st.depth, Err: err}
			break
		}
		st = next
		if consumed {
			n++
		}
	}
	f.st = st
	f.offset += int64(n)
	if len(out) > 0 {
		written, err := f.w.Write(out)
		if err == nil && written < len(out) {
			err = io.ErrShortWrite
		}
		if err != nil {
			f.err = err
			f.keep(out)
			return 0, err
		}
	}
	f.keep(out)
	if braceErr != nil {
		return n, braceErr
	}
	return len(p), nil
}

func (f *Writer) keep(out []byte) {
	if cap(out) > maxRetainedOutput {
		f.out = f.outArr[:0]
		return
	}
	f.out = out[:0]
}

// Flush flushes the sink if it has a Flush method.
func (f *Writer) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if f.err != nil {
		return f.err
	}
	fl, ok := f.w.(flusher)
	if !ok {
		return nil
	}
	if err := fl.Flush(); err != nil {
		f.err = err
		return err
	}
	return nil
}

// Close flushes the sink, closes it if it is an io.Closer and releases it.
// Close does not check that all blocks were closed; see Depth.
func (f *Writer) Close() error {
	if f.closed {
		return ErrClosed
	}
	err := f.Flush()
	if c, ok := f.w.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}
	f.closed = true
	f.w = nil
	return err
}
