package helper

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

// Xtoi2 converts the first two hex digits of s into a byte. If s is longer
// than two chars, the third one has to be the separator e.
func Xtoi2(s string, e byte) (byte, bool) {
	if len(s) < 2 || (len(s) > 2 && s[2] != e) {
		return 0, false
	}
	hi, okHi := nibble(s[0])
	lo, okLo := nibble(s[1])
	return hi<<4 | lo, okHi && okLo
}

func nibble(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ParseSeparatedHex parses strings like "de:ad:be:ef" or "de-ad-be-ef".
func ParseSeparatedHex(s string) (res []byte, err error) {
	if len(s) < 2 {
		return nil, ErrInvalidHex
	}
	if len(s) == 2 {
		b, ok := Xtoi2(s, 0)
		if !ok {
			return nil, ErrInvalidHex
		}
		return []byte{b}, nil
	}

	sep := s[2]
	if sep != ':' && sep != '-' {
		return nil, ErrInvalidHex
	}
	if (len(s)+1)%3 != 0 {
		return nil, ErrInvalidHex
	}

	n := (len(s) + 1) / 3
	res = make([]byte, n)
	for x, i := 0, 0; i < n; i++ {
		var ok bool
		if res[i], ok = Xtoi2(s[x:], sep); !ok {
			return nil, ErrInvalidHex
		}
		x += 3
	}
	return res, nil
}

// Hex renders data like the sniffer tools do, "AA:BB:CC"
func Hex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
