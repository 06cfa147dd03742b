package gemini

import (
	"strings"

	"github.com/sibylhq/sibyl"
)

// Heuristic grading of a drained answer. These are deliberately cheap
// proxies for the engine's calibration stages; the wire contract only
// requires that every successful run carries a completion verdict.

var hedges = []string{
	"might", "may ", "unclear", "uncertain", "possibly", "it depends",
	"cannot determine", "not enough information",
}

var evidenceMarkers = []string{
	"studies show", "research suggests", "meta-analysis",
	"systematic review", "evidence indicates", "according to",
}

func hedgeCount(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, h := range hedges {
		n += strings.Count(lower, h)
	}
	return n
}

// confidence starts high and decays with hedging language.
func confidence(answer string) float64 {
	c := 0.92 - 0.06*float64(hedgeCount(answer))
	if c < 0.3 {
		return 0.3
	}
	return c
}

// grade maps evidence markers and answer depth onto an A-F scale.
func grade(answer string) string {
	lower := strings.ToLower(answer)
	markers := 0
	for _, m := range evidenceMarkers {
		markers += strings.Count(lower, m)
	}
	switch {
	case markers >= 3:
		return "A"
	case markers == 2:
		return "B"
	case markers == 1:
		return "C"
	case len(answer) > 400:
		return "D"
	default:
		return "F"
	}
}

// mode classifies the reasoning pathway from the answer's shape.
func mode(answer string) sibyl.ReasoningMode {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "meta-analysis"):
		return sibyl.ModeMetaAnalytical
	case len(answer) > 2000:
		return sibyl.ModeComplex
	case len(answer) > 400:
		return sibyl.ModeModerate
	default:
		return sibyl.ModeSimple
	}
}

func truthAssessment(conf float64) string {
	switch {
	case conf >= 0.8:
		return "supported"
	case conf >= 0.5:
		return "plausible"
	default:
		return "uncertain"
	}
}

// assess derives a signal snapshot from the full output. The health
// formula mirrors the engine's: 1 - 0.6*entropy - 0.4*dissonance with a
// 0.2 floor.
func assess(text string) sibyl.SignalSnapshot {
	entropy := float64(hedgeCount(text)) / 10
	if entropy > 1 {
		entropy = 1
	}
	dissonance := 0.0
	lower := strings.ToLower(text)
	for _, marker := range []string{"however", "on the other hand", "contradict"} {
		dissonance += 0.15 * float64(strings.Count(lower, marker))
	}
	if dissonance > 1 {
		dissonance = 1
	}
	health := 1 - 0.6*entropy - 0.4*dissonance
	if health < 0.2 {
		health = 0.2
	}
	return sibyl.SignalSnapshot{
		Entropy:    &entropy,
		Dissonance: &dissonance,
		Health:     &health,
	}
}
