package bracefmt

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFormatRequest configures HTTPFormat.
type HTTPFormatRequest struct {
	URL     string
	Client  *http.Client
	Writer  io.Writer
	// Source, when set, receives the unformatted body as it is read.
	Source  io.Writer
	Options []FormatOption
}

// HTTPFormat fetches a document over HTTP(S) and streams it through Format.
func HTTPFormat(ctx context.Context, req HTTPFormatRequest) error {
	if req.URL == "" {
		return fmt.Errorf("stream http: URL is required")
	}
	if req.Writer == nil {
		return fmt.Errorf("stream http: Writer is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("stream http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return fmt.Errorf("stream http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream http: status %s", resp.Status)
	}
	var body io.Reader = resp.Body
	if req.Source != nil {
		body = io.TeeReader(resp.Body, req.Source)
	}
	return Format(FormatRequest{
		Reader:  body,
		Writer:  req.Writer,
		Options: req.Options,
	})
}
