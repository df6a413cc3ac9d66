// Package diffview prints line diffs between an input and its formatted form.
package diffview

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int8

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

// Line is one line of a diff, without its trailing newline.
type Line struct {
	Op   Op
	Text string
}

// Options controls Write.
type Options struct {
	// Color enables ANSI colors.
	Color bool
	// Width truncates lines to this many cells. Zero disables truncation.
	Width int
	// Context is the number of unchanged lines shown around each change.
	Context int
}

// Lines returns the line diff turning before into after.
func Lines(before, after []byte) []Line {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	var out []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffpatch.DiffDelete:
			op = OpDelete
		case diffpatch.DiffInsert:
			op = OpInsert
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, Line{Op: op, Text: text})
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// Changed reports whether lines contain any insertion or deletion.
func Changed(lines []Line) bool {
	for _, l := range lines {
		if l.Op != OpEqual {
			return true
		}
	}
	return false
}

// Write prints a unified-style diff of before and after to w. Nothing is
// written when they are equal.
func Write(w io.Writer, name string, before, after []byte, opts Options) error {
	lines := Lines(before, after)
	if !Changed(lines) {
		return nil
	}
	p := newPrinter(opts)
	bw := bufio.NewWriter(w)
	p.header(bw, "--- "+name+" (original)")
	p.header(bw, "+++ "+name+" (formatted)")
	show := visible(lines, max(opts.Context, 0))
	gap := true
	for i, l := range lines {
		if !show[i] {
			gap = true
			continue
		}
		if gap {
			p.hunk(bw, "@@")
			gap = false
		}
		p.line(bw, l)
	}
	return bw.Flush()
}

// visible marks the lines within context of a change.
func visible(lines []Line, context int) []bool {
	show := make([]bool, len(lines))
	for i, l := range lines {
		if l.Op == OpEqual {
			continue
		}
		lo := max(i-context, 0)
		hi := min(i+context, len(lines)-1)
		for j := lo; j <= hi; j++ {
			show[j] = true
		}
	}
	return show
}

type printer struct {
	width int
	del   *color.Color
	ins   *color.Color
	meta  *color.Color
	bold  *color.Color
}

func newPrinter(opts Options) *printer {
	p := &printer{
		width: opts.Width,
		del:   color.New(color.FgRed),
		ins:   color.New(color.FgGreen),
		meta:  color.New(color.FgCyan),
		bold:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.del, p.ins, p.meta, p.bold} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) fit(s string) string {
	if p.width <= 0 || ansi.PrintableRuneWidth(s) <= p.width {
		return s
	}
	return truncate.StringWithTail(s, uint(p.width), "…")
}

func (p *printer) header(w *bufio.Writer, s string) {
	_, _ = w.WriteString(p.bold.Sprint(p.fit(s)))
	_ = w.WriteByte('\n')
}

func (p *printer) hunk(w *bufio.Writer, s string) {
	_, _ = w.WriteString(p.meta.Sprint(s))
	_ = w.WriteByte('\n')
}

func (p *printer) line(w *bufio.Writer, l Line) {
	switch l.Op {
	case OpDelete:
		_, _ = w.WriteString(p.del.Sprint(p.fit("-" + l.Text)))
	case OpInsert:
		_, _ = w.WriteString(p.ins.Sprint(p.fit("+" + l.Text)))
	default:
		_, _ = w.WriteString(p.fit(" " + l.Text))
	}
	_ = w.WriteByte('\n')
}
