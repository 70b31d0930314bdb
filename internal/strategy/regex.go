package strategy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// regexMetaChars are the characters whose presence makes Regex treat the
// query as a pattern rather than a literal to escape.
const regexMetaChars = `[({*+?^$|\`

// patternCache is the process-wide compiled-regex cache keyed by
// (pattern, case-sensitivity), guarded the idiomatic Go way with sync.Map
// rather than a hand-rolled mutex-guarded map.
var patternCache sync.Map // map[cacheKey]*regexp.Regexp

type cacheKey struct {
	pattern       string
	caseSensitive bool
}

// Regex ranks chunks by regex match coverage and boundary quality. Invalid
// patterns are surfaced as a typed error, never silently ignored.
type Regex struct{}

func (Regex) Name() string { return "regex" }

func (Regex) Resources() Resources {
	return Resources{MinMemoryMB: 2, CPUBound: true}
}

// ErrBadPattern wraps a regex compile failure so callers can classify it as
// a typed bad-pattern error so callers can branch without string-matching.
type ErrBadPattern struct {
	Pattern string
	Cause   error
}

func (e *ErrBadPattern) Error() string {
	return fmt.Sprintf("bad regex pattern %q: %v", e.Pattern, e.Cause)
}

func (e *ErrBadPattern) Unwrap() error { return e.Cause }

func (r Regex) Rank(query string, candidates []Candidate, opts Options) ([]Result, error) {
	pattern := buildPattern(query, opts.WholeWords)

	re, err := compilePattern(pattern, opts.CaseSensitive)
	if err != nil {
		return nil, &ErrBadPattern{Pattern: query, Cause: err}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		locs := re.FindAllStringIndex(c.Text, -1)
		for _, loc := range locs {
			score := regexScore(c.Text, loc[0], loc[1])
			results = append(results, Result{
				FilePath:  c.FilePath,
				Line:      c.Line,
				Content:   c.Text,
				Score:     score,
				MatchKind: MatchRegex,
				Before:    c.Text[:loc[0]],
				After:     c.Text[loc[1]:],
			})
		}
	}

	sortByScoreThenOffset(results)
	return finalize(results, opts), nil
}

// buildPattern treats query as a regex verbatim when it contains any of
// the recognized meta-characters; otherwise it is escaped, and optionally
// wrapped with word boundaries.
func buildPattern(query string, wholeWords bool) string {
	if strings.ContainsAny(query, regexMetaChars) {
		return query
	}
	escaped := regexp.QuoteMeta(query)
	if wholeWords {
		return `\b` + escaped + `\b`
	}
	return escaped
}

func compilePattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	key := cacheKey{pattern: pattern, caseSensitive: caseSensitive}
	if v, ok := patternCache.Load(key); ok {
		return v.(*regexp.Regexp), nil
	}

	effective := pattern
	if !caseSensitive {
		effective = "(?i)" + pattern
	}
	re, err := regexp.Compile(effective)
	if err != nil {
		return nil, err
	}
	patternCache.Store(key, re)
	return re, nil
}

// regexScore combines base coverage with boundary and
// position bonuses, a short-match penalty, clamped to [0,1].
func regexScore(content string, start, end int) float64 {
	matchLen := end - start
	contentLen := len(content)
	if contentLen == 0 {
		return 0
	}

	score := 0.7 + 0.2*(float64(matchLen)/float64(contentLen))

	if boundaryOK(content, start-1) && boundaryOK(content, end) {
		score += 0.2
	}

	if start == 0 || (start > 0 && content[start-1] == '\n') {
		score += 0.1
	}

	if matchLen < 3 {
		score -= 0.1
	}

	return clampScore(score)
}

// boundaryOK reports whether the byte at idx is a non-alphanumeric
// character or is outside content's bounds (an "end" boundary).
func boundaryOK(content string, idx int) bool {
	if idx < 0 || idx >= len(content) {
		return true
	}
	b := content[idx]
	isAlnum := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
	return !isAlnum
}

// sortByScoreThenOffset orders by score descending then start offset
// (captured as len(Before), the byte offset of the match), so ties within
// one chunk favor the earliest match before finalize's coarser
// (file,line) tie-break runs.
func sortByScoreThenOffset(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return len(results[i].Before) < len(results[j].Before)
	})
}
