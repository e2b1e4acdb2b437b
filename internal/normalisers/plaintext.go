package normalisers

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaintextNormaliser is the fallback for any MIME type: it drops invalid
// UTF-8 and control characters other than newlines and tabs.
type PlaintextNormaliser struct{}

func (n *PlaintextNormaliser) Normalise(content string, mimeType string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	content = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		if r == '\r' || r == '\f' || r == '\v' {
			return '\n'
		}
		return -1
	}, content)
	return strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
}

func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "*/*"}
}

func (n *PlaintextNormaliser) Priority() int {
	return 1
}
