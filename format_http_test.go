package bracefmt

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFormat(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(nestedIf))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := HTTPFormat(context.Background(), HTTPFormatRequest{
		URL:    srv.URL + "/src.c",
		Client: srv.Client(),
		Writer: &out,
	})
	if err != nil {
		t.Fatalf("http format: %v", err)
	}
	if got, want := out.String(), formatString(t, nestedIf); got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}

	err = HTTPFormat(context.Background(), HTTPFormatRequest{
		URL:    srv.URL + "/missing",
		Client: srv.Client(),
		Writer: &out,
	})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPFormatRejectsBadRequests(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := HTTPFormat(context.Background(), HTTPFormatRequest{Writer: &out}); err == nil {
		t.Fatalf("expected error for empty URL")
	}
	if err := HTTPFormat(context.Background(), HTTPFormatRequest{URL: "http://example.invalid"}); err == nil {
		t.Fatalf("expected error for nil writer")
	}
	err := HTTPFormat(context.Background(), HTTPFormatRequest{URL: "ftp://example.invalid/x", Writer: &out})
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme") {
		t.Fatalf("expected unsupported scheme error, got %v", err)
	}
}

func TestHTTPFormatCopiesSource(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nestedIf))
	}))
	defer srv.Close()

	var out, src bytes.Buffer
	err := HTTPFormat(context.Background(), HTTPFormatRequest{
		URL:    srv.URL,
		Client: srv.Client(),
		Writer: &out,
		Source: &src,
	})
	if err != nil {
		t.Fatalf("http format: %v", err)
	}
	if src.String() != nestedIf {
		t.Fatalf("unexpected source copy %q", src.String())
	}
	if got, want := out.String(), formatString(t, nestedIf); got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
}
