// Package queryescape percent-encodes question text for the Wolfram|Alpha query string.
package queryescape

import "strings"

const upperHex = "0123456789ABCDEF"

// Encode escapes every byte outside [A-Za-z0-9-_.~]. Spaces become '+' and every other byte,
// including each byte of a multi-byte UTF-8 sequence, becomes %XX with uppercase hex.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreserved(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '_' || c == '.' || c == '~'
}
