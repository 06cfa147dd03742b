package detect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibylhq/sibyl/detect"
)

func TestArtifacts(t *testing.T) {
	t.Parallel()

	source := "Here is the function:\n\n" +
		"```go\nfunc add(a, b int) int {\n\treturn a + b\n}\n```\n\n" +
		"And the query:\n\n" +
		"```sql\nSELECT 1;\n```\n"

	arts := detect.Artifacts(source)
	require.Len(t, arts, 2)

	assert.Equal(t, "code", arts[0].Kind)
	assert.Equal(t, "go", arts[0].Language)
	assert.Equal(t, "func add(a, b int) int {\n\treturn a + b\n}\n", arts[0].Content)

	assert.Equal(t, "sql", arts[1].Language)
	assert.Equal(t, "SELECT 1;\n", arts[1].Content)
}

func TestArtifacts_NoCode(t *testing.T) {
	t.Parallel()

	assert.Empty(t, detect.Artifacts("Plain prose with `inline code` only."))
	assert.Empty(t, detect.Artifacts("   \n"))
	assert.Empty(t, detect.Artifacts(""))
}

func TestArtifacts_UnlabeledFence(t *testing.T) {
	t.Parallel()

	arts := detect.Artifacts("```\nraw text\n```\n")
	require.Len(t, arts, 1)
	assert.Empty(t, arts[0].Language)
	assert.Equal(t, "raw text\n", arts[0].Content)
}

func TestPageIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		action   detect.Action
		minScore float64
		title    string
	}{
		{"create about topic", "Create a page about thermodynamic entropy", detect.ActionCreatePage, 0.9, "thermodynamic entropy"},
		{"create without topic", "please create a note", detect.ActionCreatePage, 0.9, "please create a note"},
		{"append", "add this to my research", detect.ActionAppendPage, 0.85, ""},
		{"weak append", "note this down", detect.ActionAppendPage, 0.7, ""},
		{"plain question", "what is entropy?", detect.ActionNone, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := detect.PageIntent(tt.query)
			assert.Equal(t, tt.action, got.Action)
			if tt.action == detect.ActionNone {
				assert.Zero(t, got.Confidence)
			} else {
				assert.GreaterOrEqual(t, got.Confidence, tt.minScore)
			}
			assert.Equal(t, tt.title, got.Title)
		})
	}
}

func TestPageIntent_TitleTruncation(t *testing.T) {
	t.Parallel()

	got := detect.PageIntent("create a page about one two three four five six seven eight nine ten")
	assert.Equal(t, "one two three four five six seven eight", got.Title)
}
