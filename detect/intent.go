package detect

import "strings"

// Action is the workspace operation a detected intent maps to.
type Action string

const (
	ActionNone       Action = "none"
	ActionCreatePage Action = "create-page"
	ActionAppendPage Action = "append-page"
)

// Intent is the result of scanning a query for note-taking phrasing.
type Intent struct {
	Action     Action
	Confidence float64
	Title      string
}

// Phrase tables. Create phrases outrank append phrases when both match;
// the strongest matching phrase decides the confidence.
var (
	createPhrases = map[string]float64{
		"create a page":    0.9,
		"create a note":    0.9,
		"make a page":      0.85,
		"start a new page": 0.9,
		"new note":         0.7,
		"write a page":     0.8,
		"take a note":      0.75,
	}
	appendPhrases = map[string]float64{
		"add this to":          0.85,
		"append to":            0.85,
		"add to my notes":      0.9,
		"add it to the page":   0.9,
		"note this down":       0.7,
		"add to the current":   0.8,
		"save this to my page": 0.85,
	}
)

// PageIntent scans query for note-taking intent and returns the
// best-scoring action. Queries with no matching phrase return ActionNone
// with zero confidence.
func PageIntent(query string) Intent {
	q := strings.ToLower(query)

	best := Intent{Action: ActionNone}
	for phrase, score := range createPhrases {
		if strings.Contains(q, phrase) && score > best.Confidence {
			best = Intent{Action: ActionCreatePage, Confidence: score, Title: titleFrom(query)}
		}
	}
	for phrase, score := range appendPhrases {
		if strings.Contains(q, phrase) && score > best.Confidence {
			best = Intent{Action: ActionAppendPage, Confidence: score}
		}
	}
	return best
}

// titleFrom derives a page title from the text after "about"/"on", or
// the leading words of the query.
func titleFrom(query string) string {
	lower := strings.ToLower(query)
	for _, marker := range []string{" about ", " on ", " for "} {
		if i := strings.Index(lower, marker); i >= 0 {
			rest := strings.TrimSpace(query[i+len(marker):])
			rest = strings.TrimRight(rest, ".!?")
			if rest != "" {
				return firstWords(rest, 8)
			}
		}
	}
	return firstWords(strings.TrimRight(query, ".!?"), 8)
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
