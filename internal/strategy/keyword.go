package strategy

import (
	"strings"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// Keyword is the exact token-overlap strategy: the default, always-feasible
// ranker that requires neither an index nor embeddings beyond the chunk
// text itself.
type Keyword struct{}

func (Keyword) Name() string { return "keyword" }

func (Keyword) Resources() Resources {
	return Resources{MinMemoryMB: 1}
}

func (k Keyword) Rank(query string, candidates []Candidate, opts Options) ([]Result, error) {
	queryTokens := normalizeTokens(query, opts.CaseSensitive)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		chunkTokens := normalizeTokens(c.Text, opts.CaseSensitive)
		score := keywordScore(queryTokens, chunkTokens)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			FilePath:  c.FilePath,
			Line:      c.Line,
			Content:   c.Text,
			Score:     score,
			MatchKind: MatchKeyword,
			Before:    c.Before,
			After:     c.After,
		})
	}

	return finalize(results, opts), nil
}

// normalizeTokens tokenizes text the way textproc does, but optionally
// preserves case when CaseSensitive is requested (textproc.Tokenize always
// lowercases, so case-sensitive matching re-derives tokens by splitting on
// the same boundaries without folding case).
func normalizeTokens(text string, caseSensitive bool) []string {
	if !caseSensitive {
		return textproc.Tokenize(text)
	}
	lowerTokens := textproc.Tokenize(strings.ToLower(text))
	// Recover original casing by walking text's word boundaries in lockstep
	// with the lowered token stream length; since textproc's boundary rule
	// is deterministic, splitting text the same way reproduces the originals.
	return splitWordsPreserveCase(text, len(lowerTokens))
}

func splitWordsPreserveCase(text string, want int) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len(tok) <= 1 {
			return
		}
		if isAllDigits(tok) {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range text {
		if isWordRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	if len(tokens) != want {
		// Fall back to the lowercase tokenization if the two disagree
		// (can happen on certain Unicode case-folding edge cases); callers
		// treat this as best-effort case preservation, not a contract.
		return textproc.Tokenize(text)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > 127
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// keywordScore computes a base match ratio plus a phrase bonus.
func keywordScore(queryTokens, chunkTokens []string) float64 {
	chunkSet := make(map[string]bool, len(chunkTokens))
	for _, t := range chunkTokens {
		chunkSet[t] = true
	}

	var matches, partialMatches float64
	for _, qt := range queryTokens {
		if chunkSet[qt] {
			matches++
			continue
		}
		if containsPartial(qt, chunkTokens) {
			partialMatches++
		}
	}

	base := (matches + 0.5*partialMatches) / float64(len(queryTokens))

	phraseBonus := 0.0
	if containsSubsequence(chunkTokens, queryTokens) {
		phraseBonus = 0.3
	}

	if base >= 1.0 && phraseBonus > 0 {
		return 0.95 + 0.05*phraseBonus
	}

	return clampScore(base + phraseBonus)
}

// containsPartial reports whether qt is a substring of some chunk token,
// or some chunk token is a substring of qt.
func containsPartial(qt string, chunkTokens []string) bool {
	for _, ct := range chunkTokens {
		if strings.Contains(ct, qt) || strings.Contains(qt, ct) {
			return true
		}
	}
	return false
}

// containsSubsequence reports whether query appears as a contiguous
// subsequence of chunk.
func containsSubsequence(chunk, query []string) bool {
	if len(query) == 0 || len(query) > len(chunk) {
		return false
	}
	for i := 0; i+len(query) <= len(chunk); i++ {
		match := true
		for j, qt := range query {
			if chunk[i+j] != qt {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
