package bracefmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestFormatMatchesWriter(t *testing.T) {
	t.Parallel()
	for _, src := range chunkSamples {
		want := formatString(t, src)
		var out bytes.Buffer
		err := Format(FormatRequest{
			Reader: strings.NewReader(src),
			Writer: &out,
		})
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		if got := out.String(); got != want {
			t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
		}
	}
}

func TestFormatOneByteReader(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := Format(FormatRequest{
		Reader: iotest.OneByteReader(strings.NewReader(nestedIf)),
		Writer: &out,
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got, want := out.String(), formatString(t, nestedIf); got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
}

func TestFormatFlushesWriter(t *testing.T) {
	t.Parallel()
	sink := &countingWriter{}
	if err := Format(FormatRequest{Reader: strings.NewReader("{}"), Writer: sink}); err != nil {
		t.Fatalf("format: %v", err)
	}
	if sink.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", sink.flushes)
	}
	if sink.closed {
		t.Fatalf("Format must not close the writer")
	}
}

func TestFormatRequiresReaderAndWriter(t *testing.T) {
	t.Parallel()
	if err := Format(FormatRequest{Writer: &bytes.Buffer{}}); err == nil {
		t.Fatalf("expected error for nil reader")
	}
	if err := Format(FormatRequest{Reader: strings.NewReader("")}); err == nil {
		t.Fatalf("expected error for nil writer")
	}
}

func TestFormatReadError(t *testing.T) {
	t.Parallel()
	readErr := errors.New("boom")
	err := Format(FormatRequest{
		Reader: iotest.ErrReader(readErr),
		Writer: &bytes.Buffer{},
	})
	if !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestFormatStrict(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	err := Format(FormatRequest{
		Reader:  strings.NewReader("{{x}"),
		Writer:  &out,
		Options: []FormatOption{WithStrict(true)},
	})
	if !errors.Is(err, ErrUnclosedBraces) {
		t.Fatalf("expected ErrUnclosedBraces, got %v", err)
	}
	var braceErr *BraceError
	if !errors.As(err, &braceErr) {
		t.Fatalf("expected *BraceError, got %T", err)
	}
	if braceErr.Depth != 1 || braceErr.Offset != 4 {
		t.Fatalf("unexpected error position: %+v", braceErr)
	}
	if got, want := out.String(), "{\n\t{\n\t\tx\n\t}\n"; got != want {
		t.Fatalf("strict mode dropped output\nwant: %q\n got: %q", want, got)
	}

	if err := Format(FormatRequest{
		Reader: strings.NewReader("{{x}"),
		Writer: &bytes.Buffer{},
	}); err != nil {
		t.Fatalf("unclosed braces are accepted without strict mode: %v", err)
	}
}

func TestFormatUnbalanced(t *testing.T) {
	t.Parallel()
	out, err := FormatBytes([]byte("a\n}\nb"))
	if !errors.Is(err, ErrUnbalancedBraces) {
		t.Fatalf("expected ErrUnbalancedBraces, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "format: ") {
		t.Fatalf("missing operation prefix: %q", err.Error())
	}
	if string(out) != "a\n" {
		t.Fatalf("unexpected partial output %q", out)
	}
}

func TestFormatValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  []byte
		want error
	}{
		{name: "invalid", src: []byte("{\xff}"), want: ErrInvalidUTF8},
		{name: "truncated rune", src: []byte("{a}\xc3"), want: ErrInvalidUTF8},
		{name: "nul", src: []byte("{a\x00}"), want: ErrBinaryInput},
		{name: "rune across read boundary", src: []byte(strings.Repeat("a", 4095) + "é"), want: nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := FormatBytes(tc.src, WithValidation(true))
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFormatWithoutValidationPassesBytesThrough(t *testing.T) {
	t.Parallel()
	out, err := FormatBytes([]byte("{\xff\x00}"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got, want := string(out), "{\n\t\xff\x00\n}\n"; got != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, got)
	}
}
