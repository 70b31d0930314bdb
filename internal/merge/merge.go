// Package merge implements the result-merge layer (C8): de-duplication,
// score blending between strategies, truncation, and the grouping the
// human-output formatter renders from.
package merge

import (
	"sort"

	"github.com/amanmcp/semisearch/internal/strategy"
)

// exactKinds rank above approximate kinds when two colliding entries have
// equal score.
var exactKinds = map[strategy.MatchKind]bool{
	strategy.MatchExact:   true,
	strategy.MatchKeyword: true,
	strategy.MatchRegex:   true,
}

// hybridBoostFactor is the 1.2x multiplier applied when a keyword result
// and a vector result collide at the same (file, line).
const hybridBoostFactor = 1.2

// Options controls the merge pass. A MaxResults of zero truncates to
// nothing; a negative MaxResults means unlimited.
type Options struct {
	MinScore   float64
	MaxResults int
}

// Merge concatenates every list, de-duplicates colliding (file, line)
// positions, filters by MinScore, sorts, and truncates to MaxResults.
// Merge is idempotent: Merge(Merge(xs)) == Merge(xs) for any Options,
// since a pre-merged list carries no duplicate keys left to collide.
func Merge(lists [][]strategy.Result, opts Options) []strategy.Result {
	var all []strategy.Result
	for _, l := range lists {
		all = append(all, l...)
	}

	deduped := dedupe(all)

	filtered := deduped[:0]
	for _, r := range deduped {
		if r.Score >= opts.MinScore {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		if filtered[i].FilePath != filtered[j].FilePath {
			return filtered[i].FilePath < filtered[j].FilePath
		}
		return filtered[i].Line < filtered[j].Line
	})

	if opts.MaxResults >= 0 && len(filtered) > opts.MaxResults {
		filtered = filtered[:opts.MaxResults]
	}
	return filtered
}

type position struct {
	path string
	line int
}

// dedupe collapses entries sharing (file_path, line_number). On collision:
// the higher score wins; ties prefer an exact-ish kind over an approximate
// one; a keyword/vector collision at equal footing blends into a Hybrid
// result.
func dedupe(results []strategy.Result) []strategy.Result {
	byPos := make(map[position]strategy.Result, len(results))
	order := make([]position, 0, len(results))

	for _, r := range results {
		pos := position{path: r.FilePath, line: r.Line}
		existing, ok := byPos[pos]
		if !ok {
			byPos[pos] = r
			order = append(order, pos)
			continue
		}
		byPos[pos] = resolveCollision(existing, r)
	}

	out := make([]strategy.Result, 0, len(order))
	for _, pos := range order {
		out = append(out, byPos[pos])
	}
	return out
}

func resolveCollision(a, b strategy.Result) strategy.Result {
	if isKeywordVectorPair(a, b) {
		return blendHybrid(a, b)
	}

	if a.Score != b.Score {
		if a.Score > b.Score {
			return a
		}
		return b
	}

	aExact, bExact := exactKinds[a.MatchKind], exactKinds[b.MatchKind]
	if aExact && !bExact {
		return a
	}
	if bExact && !aExact {
		return b
	}
	return a
}

func isKeywordVectorPair(a, b strategy.Result) bool {
	return (a.MatchKind == strategy.MatchKeyword && b.MatchKind == strategy.MatchSemantic) ||
		(a.MatchKind == strategy.MatchSemantic && b.MatchKind == strategy.MatchKeyword)
}

// blendHybrid averages the two colliding scores, multiplies by 1.2, clamps
// to 1.0, and tags the result Hybrid.
func blendHybrid(a, b strategy.Result) strategy.Result {
	avg := (a.Score + b.Score) / 2
	score := avg * hybridBoostFactor
	if score > 1.0 {
		score = 1.0
	}

	base := a
	if b.MatchKind == strategy.MatchKeyword {
		base = b
	}
	base.Score = score
	base.MatchKind = strategy.MatchHybrid
	return base
}
