package strategy

import "sort"

// finalize applies the shared post-processing every strategy's Rank ends
// with: filter by MinScore, sort by score descending with (file, line)
// tie-break, then truncate to MaxResults. A MaxResults of zero truncates
// to nothing; a negative MaxResults means unlimited.
func finalize(results []Result, opts Options) []Result {
	filtered := results[:0]
	for _, r := range results {
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
