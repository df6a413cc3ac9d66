package bracefmt

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// StreamSimulateRequest configures StreamSimulate.
type StreamSimulateRequest struct {
	Reader    io.Reader
	Writer    io.Writer
	ChunkSize int
	Delay     time.Duration
	Options   []FormatOption
}

// StreamSimulate feeds Reader to a formatter ChunkSize bytes per write. With
// a non-zero Delay the Writer is flushed and the call sleeps after each write.
// Chunks may split multi-byte runes; the output is identical to Format's.
func StreamSimulate(req StreamSimulateRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("stream simulate: Reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("stream simulate: Writer is nil")
	}
	if req.ChunkSize <= 0 {
		return fmt.Errorf("stream simulate: ChunkSize must be > 0")
	}
	s := sessionPool.Get().(*session)
	s.reset(req.Writer, buildConfig(req.Options))
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(req.Reader)
	chunk := s.readBuf[:min(req.ChunkSize, len(s.readBuf))]
	if req.ChunkSize > len(s.readBuf) {
		chunk = make([]byte, req.ChunkSize)
	}
	var retErr error
	for {
		n, err := io.ReadFull(reader, chunk)
		if n > 0 {
			if werr := s.write(chunk[:n]); werr != nil {
				retErr = fmt.Errorf("stream simulate: write: %w", werr)
				goto done
			}
			if req.Delay > 0 {
				if ferr := s.w.Flush(); ferr != nil {
					retErr = fmt.Errorf("stream simulate: flush: %w", ferr)
					goto done
				}
				time.Sleep(req.Delay)
			}
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			retErr = fmt.Errorf("stream simulate: read: %w", err)
			goto done
		}
	}
	if err := s.finish(); err != nil {
		retErr = fmt.Errorf("stream simulate: %w", err)
	}
done:
	s.release()
	reader.Reset(nil)
	readerPool.Put(reader)
	return retErr
}
