package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"pkt.systems/bracefmt"
	"pkt.systems/bracefmt/internal/diffview"
	"pkt.systems/version"
)

const (
	defaultChunkSize = 3
	defaultDelay     = 20 * time.Millisecond
	diffContext      = 3
	stdinName        = "<standard input>"
)

func init() {
	version.SetDefaultModule("pkt.systems/bracefmt")
}

type options struct {
	output      string
	write       bool
	list        bool
	diff        bool
	check       bool
	strict      bool
	validate    bool
	simulate    bool
	simChunk    int
	simDelay    time.Duration
	jobs        int
	colorMode   string
	verbose     bool
	showVersion bool
}

func (o options) perFile() bool {
	return o.write || o.list || o.diff || o.check
}

func (o options) formatOptions() []bracefmt.FormatOption {
	return []bracefmt.FormatOption{
		bracefmt.WithStrict(o.strict),
		bracefmt.WithValidation(o.validate),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	flags := pflag.NewFlagSet("bracefmt", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.output, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&opts.write, "write", "w", false, "Rewrite files in place")
	flags.BoolVarP(&opts.list, "list", "l", false, "List inputs whose formatting differs")
	flags.BoolVarP(&opts.diff, "diff", "d", false, "Print diffs instead of formatted output")
	flags.BoolVar(&opts.check, "check", false, "Exit with status 1 if any input is not formatted")
	flags.BoolVar(&opts.strict, "strict", false, "Fail when braces are left open at end of input")
	flags.BoolVar(&opts.validate, "validate", false, "Reject invalid UTF-8 or binary input")
	flags.BoolVar(&opts.simulate, "simulate", false, "Stream simulator (use default delay and chunk size)")
	flags.IntVar(&opts.simChunk, "simulate-chunk", defaultChunkSize, "Max bytes per stream chunk")
	flags.DurationVar(&opts.simDelay, "simulate-delay", defaultDelay, "Delay per stream chunk")
	flags.IntVarP(&opts.jobs, "jobs", "j", 4, "Files formatted concurrently with -w, -l, -d or --check")
	flags.StringVar(&opts.colorMode, "color", "auto", "Diff colors: auto|on|off")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	flags.BoolVar(&opts.showVersion, "version", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: bracefmt [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nIf no input is provided, text is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return 0
	}
	logger := newLogger(stderr, opts.verbose)

	if opts.perFile() {
		if opts.output != "" {
			fmt.Fprintln(stderr, "--output cannot be combined with -w, -l, -d or --check")
			return 2
		}
		useColor, err := resolveColor(opts.colorMode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "invalid --color %q: %v\n", opts.colorMode, err)
			return 2
		}
		names := flags.Args()
		if len(names) == 0 {
			names = []string{"-"}
		}
		results := formatFiles(ctx, logger, names, stdin, opts)
		return report(logger, stdout, results, opts, diffview.Options{
			Color:   useColor,
			Width:   terminalWidth(stdout),
			Context: diffContext,
		})
	}

	reader, closer, err := openInputs(ctx, flags.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	writer, closeOut, err := resolveOutput(opts.output, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	bw := bufio.NewWriter(writer)

	if opts.simulate {
		err = bracefmt.StreamSimulate(bracefmt.StreamSimulateRequest{
			Reader:    reader,
			Writer:    bw,
			ChunkSize: opts.simChunk,
			Delay:     opts.simDelay,
			Options:   opts.formatOptions(),
		})
	} else {
		err = bracefmt.Format(bracefmt.FormatRequest{
			Reader:  reader,
			Writer:  bw,
			Options: opts.formatOptions(),
		})
	}
	if err != nil {
		_ = bw.Flush()
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type fileResult struct {
	name    string
	src     []byte
	out     []byte
	changed bool
	err     error
}

// formatFiles formats each input independently, at most opts.jobs at a time.
// Results keep the order of names. Standard input is read once and shared by
// every "-" argument.
func formatFiles(ctx context.Context, logger *slog.Logger, names []string, stdin io.Reader, opts options) []fileResult {
	results := make([]fileResult, len(names))
	readStdin := sync.OnceValues(func() ([]byte, error) { return io.ReadAll(stdin) })
	var g errgroup.Group
	g.SetLimit(max(opts.jobs, 1))
	for i, name := range names {
		g.Go(func() error {
			res := formatOne(ctx, name, readStdin, opts)
			logger.DebugContext(ctx, "formatted", "path", res.name, "changed", res.changed, "bytes", len(res.out))
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func formatOne(ctx context.Context, name string, readStdin func() ([]byte, error), opts options) fileResult {
	res := fileResult{name: name}
	path := ""
	switch {
	case name == "-":
		res.name = stdinName
		if opts.write {
			res.err = fmt.Errorf("cannot rewrite standard input")
			return res
		}
		if res.src, res.err = readStdin(); res.err == nil {
			res.out, res.err = bracefmt.FormatBytes(res.src, opts.formatOptions()...)
		}
	default:
		src, err := makeInputSource(ctx, name)
		if err != nil {
			res.err = err
			return res
		}
		if opts.write && src.path == "" {
			res.err = fmt.Errorf("cannot rewrite remote input")
			return res
		}
		if src.url != "" {
			var raw, out bytes.Buffer
			res.err = bracefmt.HTTPFormat(ctx, bracefmt.HTTPFormatRequest{
				URL:     src.url,
				Writer:  &out,
				Source:  &raw,
				Options: opts.formatOptions(),
			})
			res.src, res.out = raw.Bytes(), out.Bytes()
			break
		}
		path = src.path
		if res.src, res.err = src.readAll(); res.err == nil {
			res.out, res.err = bracefmt.FormatBytes(res.src, opts.formatOptions()...)
		}
	}
	if res.err != nil {
		return res
	}
	res.changed = !bytes.Equal(res.src, res.out)
	if opts.write && res.changed {
		res.err = rewriteFile(normalizePath(path), res.out)
	}
	return res
}

func report(logger *slog.Logger, stdout io.Writer, results []fileResult, opts options, diffOpts diffview.Options) int {
	code := 0
	for _, res := range results {
		if res.err != nil {
			logger.Error("format failed", "path", res.name, "err", res.err)
			code = 1
			continue
		}
		if !res.changed {
			continue
		}
		if opts.check {
			code = 1
		}
		if opts.list {
			fmt.Fprintln(stdout, res.name)
		}
		if opts.diff {
			if err := diffview.Write(stdout, res.name, res.src, res.out, diffOpts); err != nil {
				logger.Error("write diff", "path", res.name, "err", err)
				code = 1
			}
		}
	}
	return code
}

func rewriteFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func resolveColor(mode string, w io.Writer) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

// terminalWidth returns the width used to truncate diff lines, or 0 when
// output is not a terminal and COLUMNS is unset.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if width, _, err := term.GetSize(fd); err == nil && width > 0 {
				return width
			}
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if width, err := strconv.Atoi(value); err == nil && width > 0 {
			return width
		}
	}
	return 0
}

type inputSource struct {
	// path is set for local files, url for http(s).
	path string
	url  string
	open func() (io.Reader, io.Closer, error)
}

func (s inputSource) readAll() ([]byte, error) {
	r, c, err := s.open()
	if err != nil {
		return nil, err
	}
	if c != nil {
		defer func() { _ = c.Close() }()
	}
	return io.ReadAll(r)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

// openInputs concatenates all inputs into one stream; "-" or no inputs reads
// stdin.
func openInputs(ctx context.Context, args []string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		if strings.TrimSpace(raw) == "-" {
			sources = append(sources, inputSource{open: func() (io.Reader, io.Closer, error) {
				return stdin, nil, nil
			}})
			continue
		}
		src, err := makeInputSource(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	m := &multiInputReader{sources: sources}
	return m, m, nil
}

func makeInputSource(ctx context.Context, raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{url: raw, open: func() (io.Reader, io.Closer, error) {
				return openURL(ctx, raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{path: path, open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{path: raw, open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(ctx context.Context, raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	clean := normalizePath(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// normalizePath makes path absolute. A leading "~" is left to the shell.
func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
