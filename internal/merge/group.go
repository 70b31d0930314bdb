package merge

import (
	"sort"

	"github.com/amanmcp/semisearch/internal/strategy"
)

// exactHitThreshold is how many non-exact hits a file needs before its
// results collapse into their own per-file group.
const exactHitThreshold = 3

// goodScoreThreshold separates "good" from "other" among the leftover
// single/double hits.
const goodScoreThreshold = 0.8

// Groups is the human-output grouping: the core
// exposes this function but never formats it itself.
type Groups struct {
	Exact  []strategy.Result
	ByFile []FileGroup
	Good   []strategy.Result
	Other  []strategy.Result
}

// FileGroup is a per-file cluster of >=3 non-exact hits, its hits sorted
// by line number.
type FileGroup struct {
	FilePath string
	Hits     []strategy.Result
}

// Group partitions a merged, already-sorted result list into the
// presentation buckets.
func Group(results []strategy.Result) Groups {
	var exact, rest []strategy.Result
	for _, r := range results {
		if r.MatchKind == strategy.MatchExact {
			exact = append(exact, r)
		} else {
			rest = append(rest, r)
		}
	}

	byFile := make(map[string][]strategy.Result)
	var order []string
	for _, r := range rest {
		if _, ok := byFile[r.FilePath]; !ok {
			order = append(order, r.FilePath)
		}
		byFile[r.FilePath] = append(byFile[r.FilePath], r)
	}

	var groups []FileGroup
	var leftover []strategy.Result
	for _, path := range order {
		hits := byFile[path]
		if len(hits) >= exactHitThreshold {
			sorted := append([]strategy.Result(nil), hits...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })
			groups = append(groups, FileGroup{FilePath: path, Hits: sorted})
		} else {
			leftover = append(leftover, hits...)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return len(groups[i].Hits) > len(groups[j].Hits) })

	var good, other []strategy.Result
	for _, r := range leftover {
		if r.Score >= goodScoreThreshold {
			good = append(good, r)
		} else {
			other = append(other, r)
		}
	}

	return Groups{Exact: exact, ByFile: groups, Good: good, Other: other}
}
