package bracefmt

import (
	"unicode"
	"unicode/utf8"
)

type mode uint8

const (
	modeLineStart mode = iota
	modeMidLine
)

type state struct {
	depth int
	mode  mode
}

// step advances the state machine by one byte, appending output to out. When
// the returned bool is false the byte was not consumed and must be fed again
// under the returned state.
func step(st state, c byte, out []byte) (state, bool, []byte, error) {
	switch st.mode {
	case modeLineStart:
		switch {
		case c == '{':
			out = appendIndent(out, st.depth)
			out = append(out, '{', '\n')
			st.depth++
			return st, true, out, nil
		case c == '}':
			if st.depth == 0 {
				return st, false, out, ErrUnbalancedBraces
			}
			st.depth--
			out = appendIndent(out, st.depth)
			out = append(out, '}', '\n')
			return st, true, out, nil
		case isSpace(c):
			return st, true, out, nil
		default:
			out = appendIndent(out, st.depth)
			st.mode = modeMidLine
			return st, false, out, nil
		}
	default:
		switch c {
		case '\n', '\r':
			st.mode = modeLineStart
			return st, true, append(out, '\n'), nil
		case '{', '}':
			st.mode = modeLineStart
			return st, false, append(out, '\n'), nil
		default:
			return st, true, append(out, c), nil
		}
	}
}

// isSpace only matches ASCII whitespace so bytes of multi-byte encodings are
// never mistaken for U+0085 or U+00A0.
func isSpace(c byte) bool {
	return c < utf8.RuneSelf && unicode.IsSpace(rune(c))
}

const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"

func appendIndent(out []byte, depth int) []byte {
	for depth > len(tabs) {
		out = append(out, tabs...)
		depth -= len(tabs)
	}
	return append(out, tabs[:depth]...)
}
