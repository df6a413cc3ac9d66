// Package bracefmt re-indents brace-delimited text as a stream.
//
// Every '{' opens an indented block and every '}' closes one. Each brace is
// placed on its own line and every line is indented with one tab per open
// block, replacing whatever leading whitespace the input had. Nothing else is
// parsed: braces inside strings or comments count like any other.
//
// The formatter is an io.Writer wrapping a sink. It keeps its state between
// Write calls, so the output is the same whether the input arrives one byte
// at a time or all at once.
//
// Example:
//
//	w := bracefmt.NewWriter(os.Stdout)
//	if _, err := io.WriteString(w, "if (x) { y(); }"); err != nil {
//		log.Fatal(err)
//	}
//	if err := w.Flush(); err != nil {
//		log.Fatal(err)
//	}
//
// Format, FormatBytes, HTTPFormat and StreamSimulate drive a Writer from an
// io.Reader, a byte slice, a URL and a chunked simulation respectively.
package bracefmt
