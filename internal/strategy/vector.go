package strategy

import (
	"strings"

	"github.com/coder/hnsw"

	"github.com/amanmcp/semisearch/internal/embed"
)

// hnswAccelerationThreshold is the candidate-set size at or above which Vector
// builds an approximate-nearest-neighbor graph instead of a linear cosine
// scan; below it, the exact scan is cheap enough and guarantees exact
// results, which is what small corpora deserve.
const hnswAccelerationThreshold = 2000

// VectorEmbedder is the subset of embed.Embedder Vector needs: embedding
// text under the vocabulary current at query time.
type VectorEmbedder interface {
	Embed(text string) []float32
}

// Vector ranks chunks by cosine similarity between the query's embedding
// and each chunk's embedding, re-embedding chunks that arrived without one.
type Vector struct {
	Embedder VectorEmbedder

	// EnableExactBoost and EnableRecencyBoost gate the two optional
	// reranking hooks.
	EnableExactBoost   bool
	EnableRecencyBoost bool
}

func (Vector) Name() string { return "vector" }

func (Vector) Resources() Resources {
	return Resources{MinMemoryMB: 16, RequiresEmbeddings: true, CPUBound: true}
}

func (v Vector) Rank(query string, candidates []Candidate, opts Options) ([]Result, error) {
	if v.Embedder == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVec := v.Embedder.Embed(query)
	if len(queryVec) == 0 {
		return nil, nil
	}

	var pairs []scoredCandidate
	if len(candidates) >= hnswAccelerationThreshold {
		pairs = v.searchHNSW(queryVec, candidates)
	} else {
		pairs = make([]scoredCandidate, 0, len(candidates))
		for i, c := range candidates {
			vec := c.Embedding
			if len(vec) == 0 {
				vec = v.Embedder.Embed(c.Text)
			}
			pairs = append(pairs, scoredCandidate{idx: i, score: embed.Similarity(queryVec, vec)})
		}
	}

	queryLower := strings.ToLower(query)
	queryWords := strings.Fields(queryLower)

	results := make([]Result, 0, len(pairs))
	for _, p := range pairs {
		score := float64(p.score)
		if score < opts.MinScore && !v.EnableExactBoost {
			continue
		}
		c := candidates[p.idx]

		if v.EnableExactBoost {
			score = exactMatchBoost(score, c.Text, queryLower, queryWords)
		}
		score = clampScore(score)
		if score < opts.MinScore {
			continue
		}

		results = append(results, Result{
			FilePath:  c.FilePath,
			Line:      c.Line,
			Content:   c.Text,
			Score:     score,
			MatchKind: MatchSemantic,
			Before:    c.Before,
			After:     c.After,
		})
	}

	return finalize(results, opts), nil
}

// scoredCandidate pairs a candidate's index with its cosine similarity to
// the query vector.
type scoredCandidate struct {
	idx   int
	score float32
}

// searchHNSW builds a one-shot graph over candidates' embeddings (chunks
// lacking one are skipped rather than re-embedded, since the point of the
// ANN path is to avoid per-query re-embedding work at this scale) and
// returns every candidate scored by cosine similarity via the graph's own
// distance function.
func (v Vector) searchHNSW(queryVec []float32, candidates []Candidate) []scoredCandidate {
	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance

	present := 0
	for i, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(i, c.Embedding))
		present++
	}
	if present == 0 {
		return nil
	}

	nodes := graph.Search(queryVec, present)
	out := make([]scoredCandidate, 0, len(nodes))
	for _, n := range nodes {
		dist := graph.Distance(queryVec, n.Value)
		out = append(out, scoredCandidate{idx: n.Key, score: 1 - dist})
	}
	return out
}

// exactMatchBoost implements the exact-match rerank hook: 1.2x when the
// chunk contains the query case-folded, plus up to 0.1 scaled by the
// fraction of query words present.
func exactMatchBoost(score float64, content, queryLower string, queryWords []string) float64 {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, queryLower) {
		return score
	}
	score *= 1.2

	if len(queryWords) > 0 {
		matched := 0
		for _, w := range queryWords {
			if strings.Contains(lower, w) {
				matched++
			}
		}
		score += 0.1 * (float64(matched) / float64(len(queryWords)))
	}
	return score
}
