package auth

import (
	"strings"
)

// BuildAuthURL returns the provider's authorization URL for clientID.
// Parameters are emitted in a fixed order and every value is percent-encoded
// except ASCII alphanumerics and "~-._".
func BuildAuthURL(p Provider, clientID, redirectURI string) string {
	params := [][2]string{
		{"client_id", clientID},
		{"redirect_uri", redirectURI},
		{"scope", p.Scope()},
		{"response_type", "code"},
	}

	var b strings.Builder
	b.WriteString(p.Endpoint.AuthURL)
	b.WriteByte('?')
	for i, kv := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(escape(kv[1]))
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// escape percent-encodes s byte by byte. net/url is not used because
// QueryEscape turns spaces into '+' and PathEscape keeps sub-delimiters.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '~', c == '-', c == '.', c == '_':
		return true
	}
	return false
}
