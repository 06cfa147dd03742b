// Package detect provides artifact detection over rendered answer text
// and note-taking intent detection over the originating query. Both are
// advisory: callers gate side effects on their results but never fail a
// run because of them.
package detect

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sibylhq/sibyl"
)

// Artifacts parses source as markdown and returns the fenced code blocks
// it contains, in document order.
func Artifacts(source string) []sibyl.Artifact {
	if strings.TrimSpace(source) == "" {
		return nil
	}

	src := []byte(source)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var arts []sibyl.Artifact
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		arts = append(arts, sibyl.Artifact{
			Kind:     "code",
			Language: string(fcb.Language(src)),
			Content:  blockText(fcb, src),
		})
		return ast.WalkSkipChildren, nil
	})
	return arts
}

// blockText reassembles the raw lines of a code block.
func blockText(n *ast.FencedCodeBlock, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
