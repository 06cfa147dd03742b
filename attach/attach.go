// Package attach resolves attachment references from a submission into
// concrete attachments. A reference is a glob pattern relative to the
// attachment root; content extraction is a downstream concern.
package attach

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sibylhq/sibyl"
)

// Resolver expands glob patterns against a fixed root directory.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{root: dir}
}

// Resolve expands each pattern and returns the matched files in walk
// order. An invalid pattern or a pattern with no matches is a resolution
// error: the caller treats it as a setup failure before streaming begins.
func (r *Resolver) Resolve(patterns []string) ([]sibyl.Attachment, error) {
	fsys := os.DirFS(r.root)

	var atts []sibyl.Attachment
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid attachment pattern %q", pattern)
		}

		matched := false
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d iofs.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			matched = true
			atts = append(atts, sibyl.Attachment{
				Name: filepath.Base(path),
				Path: filepath.Join(r.root, filepath.FromSlash(path)),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", pattern, err)
		}
		if !matched {
			return nil, fmt.Errorf("no attachment matches %q", pattern)
		}
	}
	return atts, nil
}
