// Package hints derives progressive, usage-triggered suggestions: small
// nudges toward features a user hasn't discovered yet (the --fuzzy flag
// after repeated no-match searches, building an index, --advanced mode).
package hints

import "github.com/amanmcp/semisearch/internal/usage"

// Hint is one suggestion, keyed so a caller can dedupe or silence it.
type Hint struct {
	Key     string
	Message string
}

// thresholds below which a hint stays quiet; chosen so a hint appears
// only after the pattern repeats, not on a single occurrence.
const (
	repeatedNoMatchThreshold = 3
	searchesBeforeAdvanced   = 20
	searchesBeforeIndexHint  = 5
)

// For inspects a project's usage stats and returns the hints that apply
// right now. Order is stable: most actionable first.
func For(s usage.Stats) []Hint {
	var out []Hint

	if s.NoMatchCount >= repeatedNoMatchThreshold && s.SearchCount > 0 {
		ratio := float64(s.NoMatchCount) / float64(s.SearchCount)
		if ratio > 0.5 {
			out = append(out, Hint{
				Key:     "try-fuzzy",
				Message: "Many searches are coming back empty. Try --fuzzy for typo-tolerant matching.",
			})
		}
	}

	if s.SearchCount >= searchesBeforeIndexHint && s.IndexCount == 0 {
		out = append(out, Hint{
			Key:     "build-index",
			Message: "Run 'semisearch index' once to speed up repeat searches and enable semantic mode.",
		})
	}

	if s.SearchCount >= searchesBeforeAdvanced && s.ModeCounts["hybrid"] == 0 && s.ModeCounts["semantic"] == 0 {
		out = append(out, Hint{
			Key:     "try-advanced",
			Message: "Pass --advanced to unlock --mode, --format json, and --context for more control.",
		})
	}

	return out
}
