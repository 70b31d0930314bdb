package strategy

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// defaultMaxEditDistance is used when Options.MaxEditDistance is zero.
const defaultMaxEditDistance = 4

// Fuzzy blends a subsequence matcher, per-token and sliding-window edit
// distance, and a substring bonus, so typos and near-misses still rank.
type Fuzzy struct{}

func (Fuzzy) Name() string { return "fuzzy" }

func (Fuzzy) Resources() Resources {
	return Resources{MinMemoryMB: 4, CPUBound: true}
}

func (f Fuzzy) Rank(query string, candidates []Candidate, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	maxDist := opts.MaxEditDistance
	if maxDist <= 0 {
		maxDist = defaultMaxEditDistance
	}

	q := query
	chunkText := func(c Candidate) string { return c.Text }
	if !opts.CaseSensitive {
		q = strings.ToLower(q)
	}
	queryTokens := textproc.Tokenize(query)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		text := chunkText(c)
		cmp := text
		if !opts.CaseSensitive {
			cmp = strings.ToLower(text)
		}

		subseq := subsequenceScore(q, cmp)
		tokenEdit := tokenEditScore(queryTokens, textproc.Tokenize(text), maxDist)
		window := slidingWindowScore(q, cmp, maxDist)
		substrBonus := 0.0
		if strings.Contains(cmp, q) {
			substrBonus = 0.3
		}

		score := clampScore(0.4*subseq + 0.3*tokenEdit + 0.2*window + substrBonus)
		if score <= 0 {
			continue
		}

		before, after := matchPositions(q, cmp, text)
		results = append(results, Result{
			FilePath:  c.FilePath,
			Line:      c.Line,
			Content:   c.Text,
			Score:     score,
			MatchKind: MatchFuzzy,
			Before:    before,
			After:     after,
		})
	}

	return finalize(results, opts), nil
}

// subsequenceScore is a Smith-Waterman-like local alignment bounded to
// [0,1]: the longest matching subsequence of query's characters found (in
// order, not necessarily contiguous) inside chunk, normalized by len(query).
func subsequenceScore(query, chunk string) float64 {
	if query == "" {
		return 0
	}
	q := []rune(query)
	c := []rune(chunk)
	m, n := len(q), len(c)
	if m == 0 || n == 0 {
		return 0
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	best := 0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if q[i-1] == c[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = maxInt(prev[j], curr[j-1])
			}
			if curr[j] > best {
				best = curr[j]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return clampScore(float64(best) / float64(m))
}

// tokenEditScore: for each query token, the best-over-chunk-tokens
// 1 - dist/max(|q|,|c|) provided dist <= maxDist; mean over query tokens.
func tokenEditScore(queryTokens, chunkTokens []string, maxDist int) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	var total float64
	for _, qt := range queryTokens {
		best := 0.0
		for _, ct := range chunkTokens {
			dist := levenshtein(qt, ct)
			if dist > maxDist {
				continue
			}
			denom := maxInt(len([]rune(qt)), len([]rune(ct)))
			if denom == 0 {
				continue
			}
			s := 1 - float64(dist)/float64(denom)
			if s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(queryTokens))
}

// slidingWindowScore slides windows of size |q|, |q|+1, |q|+2 (in runes)
// over chunk and keeps the best 1 - dist/max(|q|,|window|) under maxDist.
func slidingWindowScore(query, chunk string, maxDist int) float64 {
	qr := []rune(query)
	qlen := len(qr)
	if qlen == 0 {
		return 0
	}
	cr := []rune(chunk)

	best := 0.0
	for _, size := range []int{qlen, qlen + 1, qlen + 2} {
		if size <= 0 || size > len(cr) {
			continue
		}
		for i := 0; i+size <= len(cr); i++ {
			window := string(cr[i : i+size])
			dist := levenshtein(query, window)
			if dist > maxDist {
				continue
			}
			denom := maxInt(qlen, size)
			s := 1 - float64(dist)/float64(denom)
			if s > best {
				best = s
			}
		}
	}
	return best
}

// matchPositions locates the match span to use for before/after context:
// the subsequence matcher's first/last matched rune, falling back to a
// plain substring search, and as a last resort (0, min(len, 2*|q|)).
func matchPositions(q, cmp, original string) (before, after string) {
	matches := fuzzy.Find(q, []string{cmp})
	if len(matches) > 0 && len(matches[0].MatchedIndexes) > 0 {
		idx := matches[0].MatchedIndexes
		first, last := idx[0], idx[len(idx)-1]
		return splitAround(original, first, last+1)
	}
	if i := strings.Index(cmp, q); i >= 0 {
		return splitAround(original, i, i+len(q))
	}
	end := len(original)
	if want := 2 * len([]rune(q)); want < end {
		end = want
	}
	return splitAround(original, 0, end)
}

func splitAround(s string, start, end int) (string, string) {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		start = end
	}
	return s[:start], s[end:]
}

func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	m, n := len(ar), len(br)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}


func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
