package server

import (
	"strings"

	"github.com/rivo/uniseg"
)

const titleMaxGraphemes = 64

// DeriveTitle turns the originating query of a chat's first exchange into
// a short title: whitespace collapsed, truncated on a grapheme boundary
// so combined characters are never split.
func DeriveTitle(query string) string {
	title := strings.Join(strings.Fields(query), " ")
	if title == "" {
		return "Untitled chat"
	}

	if uniseg.GraphemeClusterCount(title) <= titleMaxGraphemes {
		return title
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(title)
	for i := 0; i < titleMaxGraphemes-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return strings.TrimRight(b.String(), " ") + "…"
}
