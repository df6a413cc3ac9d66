package bracefmt

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports invalid UTF-8 input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput returns an error if src is not valid UTF-8 or appears binary.
// The Writer itself accepts any bytes; this is an optional preflight.
func ValidateInput(src []byte) error {
	var v validator
	if err := v.write(src); err != nil {
		return err
	}
	return v.finish()
}

// validator checks a byte stream incrementally. Runes split across writes
// are carried in tail.
type validator struct {
	total   int
	control int
	tail    [utf8.UTFMax]byte
	tailLen int
}

func (v *validator) reset() {
	*v = validator{}
}

func (v *validator) write(b []byte) error {
	if v.tailLen > 0 {
		var small [utf8.UTFMax * 2]byte
		n := copy(small[:], v.tail[:v.tailLen])
		n += copy(small[n:], b[:min(len(b), utf8.UTFMax)])
		rest, err := v.addBytes(small[:n])
		if err != nil {
			return err
		}
		used := n - len(rest) - v.tailLen
		if used <= 0 {
			v.tailLen = copy(v.tail[:], small[:n])
			return nil
		}
		v.tailLen = 0
		b = b[used:]
	}
	rest, err := v.addBytes(b)
	if err != nil {
		return err
	}
	v.tailLen = copy(v.tail[:], rest)
	return nil
}

func (v *validator) finish() error {
	if v.tailLen > 0 {
		return ErrInvalidUTF8
	}
	if v.total >= minBinarySample && v.control*100 >= v.total*maxControlPct {
		return ErrBinaryInput
	}
	return nil
}

func (v *validator) addBytes(b []byte) ([]byte, error) {
	i := 0
	for i < len(b) {
		if !utf8.FullRune(b[i:]) {
			break
		}
		r, size := utf8.DecodeRune(b[i:])
		if err := v.addRune(r, size); err != nil {
			return nil, err
		}
		i += size
	}
	return b[i:], nil
}

func (v *validator) addRune(r rune, size int) error {
	if r == utf8.RuneError && size == 1 {
		return ErrInvalidUTF8
	}
	if r == 0 {
		return ErrBinaryInput
	}
	v.total += size
	if isControlRune(r) {
		v.control++
		if v.total >= minBinarySample && v.control*100 >= v.total*maxControlPct {
			return ErrBinaryInput
		}
	}
	return nil
}

func isControlRune(r rune) bool {
	switch r {
	case '\n', '\r', '\t', '\v', '\f':
		return false
	}
	return r < 0x20 || r == 0x7F
}
