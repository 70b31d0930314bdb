package strategy

import (
	"math"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// tfidfLengthShort and tfidfLengthLong bound the "comfortable" chunk
// length window (in tokens) that gets no length penalty.
const (
	tfidfLengthShort = 20
	tfidfLengthLong  = 100
	tfidfBonusCap    = 0.5
)

// DocFrequency exposes just enough of the vocabulary for TfIdf to score
// without importing internal/embed (which itself depends on textproc, not
// strategy) — avoiding a cyclic module dependency while keeping the same
// N/df(t) arithmetic the embedder's IDF uses.
type DocFrequency interface {
	// DF returns the number of documents containing token, and the total
	// document count N the vocabulary was built from.
	DF(token string) (df, n int)
}

// TfIdf ranks chunks by classic TF-IDF relevance: requires a built
// vocabulary (via Freqs) to compute per-token IDF.
type TfIdf struct {
	Freqs DocFrequency
}

func (TfIdf) Name() string { return "tfidf" }

func (t TfIdf) Resources() Resources {
	return Resources{MinMemoryMB: 8, RequiresIndex: true}
}

func (t TfIdf) Rank(query string, candidates []Candidate, opts Options) ([]Result, error) {
	if t.Freqs == nil {
		return nil, nil
	}
	queryTokens := textproc.Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		chunkTokens := textproc.Tokenize(c.Text)
		if len(chunkTokens) == 0 {
			continue
		}
		counts := make(map[string]int, len(chunkTokens))
		for _, tok := range chunkTokens {
			counts[tok]++
		}

		var sum float64
		for _, qt := range queryTokens {
			sum += tfidfScore(qt, counts[qt], t.Freqs)
		}
		mean := sum / float64(len(queryTokens))

		bonus := phraseBonus(chunkTokens, queryTokens)
		penalty := lengthPenalty(len(chunkTokens))

		score := clampScore((mean + bonus) * penalty)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			FilePath:  c.FilePath,
			Line:      c.Line,
			Content:   c.Text,
			Score:     score,
			MatchKind: MatchTfIdf,
			Before:    c.Before,
			After:     c.After,
		})
	}

	return finalize(results, opts), nil
}

// tfidfScore computes TF(t)*IDF(t) for one query token against one chunk's
// token counts: TF(t) = 1 + ln(count) when present, 0 otherwise; IDF(t) =
// ln(N/df(t)) when df(t) > 0, else 0.
func tfidfScore(token string, count int, freqs DocFrequency) float64 {
	if count == 0 {
		return 0
	}
	tf := 1 + math.Log(float64(count))

	df, n := freqs.DF(token)
	if df <= 0 || n <= 0 {
		return 0
	}
	idf := math.Log(float64(n) / float64(df))
	return tf * idf
}

// phraseBonus rewards contiguous occurrences of the query token sequence
// (+0.3 each) and "at least half match" windows (+0.1 each), capped at 0.5.
func phraseBonus(chunkTokens, queryTokens []string) float64 {
	var bonus float64
	qlen := len(queryTokens)
	if qlen == 0 || qlen > len(chunkTokens) {
		return 0
	}

	for i := 0; i+qlen <= len(chunkTokens); i++ {
		window := chunkTokens[i : i+qlen]
		matched := 0
		exact := true
		for j, qt := range queryTokens {
			if window[j] == qt {
				matched++
			} else {
				exact = false
			}
		}
		if exact {
			bonus += 0.3
		} else if float64(matched) >= float64(qlen)/2 {
			bonus += 0.1
		}
		if bonus >= tfidfBonusCap {
			return tfidfBonusCap
		}
	}
	return math.Min(bonus, tfidfBonusCap)
}

// lengthPenalty is 1.0 for chunks of 20-100 tokens, and degrades outside
// that window.
func lengthPenalty(length int) float64 {
	switch {
	case length >= tfidfLengthShort && length <= tfidfLengthLong:
		return 1.0
	case length < tfidfLengthShort:
		if length == 0 {
			return 0.5
		}
		return math.Max(0.5, float64(length)/float64(tfidfLengthShort))
	default:
		return math.Max(0.7, float64(tfidfLengthLong)/float64(length))
	}
}
