package bracefmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sync"
)

var sessionPool = sync.Pool{
	New: func() any {
		return &session{}
	},
}

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 4096)
	},
}

// session bundles the per-call state of Format so it can be pooled.
type session struct {
	w       Writer
	v       validator
	cfg     formatConfig
	readBuf [4096]byte
}

func (s *session) reset(w io.Writer, cfg formatConfig) {
	s.w.Reset(w)
	s.v.reset()
	s.cfg = cfg
}

func (s *session) write(chunk []byte) error {
	if s.cfg.validate {
		if err := s.v.write(chunk); err != nil {
			return err
		}
	}
	_, err := s.w.Write(chunk)
	return err
}

func (s *session) finish() error {
	if s.cfg.validate {
		if err := s.v.finish(); err != nil {
			return err
		}
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if s.cfg.strict && s.w.Depth() > 0 {
		return &BraceError{Offset: s.w.offset, Depth: s.w.Depth(), Err: ErrUnclosedBraces}
	}
	return nil
}

func (s *session) release() {
	s.w.Reset(io.Discard)
	sessionPool.Put(s)
}

// FormatRequest configures Format.
type FormatRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Options []FormatOption
}

// Format reads brace-delimited text from Reader and writes the re-indented
// text to Writer. Writer is flushed at end of input if it has a Flush method.
func Format(req FormatRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("format: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("format: writer is nil")
	}
	s := sessionPool.Get().(*session)
	s.reset(req.Writer, buildConfig(req.Options))
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(req.Reader)
	var retErr error
	for {
		n, err := reader.Read(s.readBuf[:])
		if n > 0 {
			if werr := s.write(s.readBuf[:n]); werr != nil {
				retErr = fmt.Errorf("format: %w", werr)
				goto done
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			retErr = fmt.Errorf("format: read: %w", err)
			goto done
		}
	}
	if err := s.finish(); err != nil {
		retErr = fmt.Errorf("format: %w", err)
	}
done:
	s.release()
	reader.Reset(nil)
	readerPool.Put(reader)
	return retErr
}

// FormatBytes formats src in memory. On error the output produced so far is
// returned along with it.
func FormatBytes(src []byte, opts ...FormatOption) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(src) + len(src)/4)
	err := Format(FormatRequest{
		Reader:  bytes.NewReader(src),
		Writer:  &out,
		Options: opts,
	})
	return out.Bytes(), err
}
