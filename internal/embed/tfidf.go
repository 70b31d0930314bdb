package embed

import (
	"math"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// Embedder turns text into a fixed-dimension f32 vector under a
// deterministic vocabulary. An alternative neural embedder may replace
// this type verbatim provided its vectors are fixed-dimension,
// deterministic for identical input, and cosine-comparable.
type Embedder struct {
	vocab *Vocabulary
}

// New wraps an already-built vocabulary in an Embedder.
func New(vocab *Vocabulary) *Embedder {
	return &Embedder{vocab: vocab}
}

// Vocabulary returns the embedder's current vocabulary.
func (e *Embedder) Vocabulary() *Vocabulary {
	return e.vocab
}

// Embed produces a vector of length |V| whose coordinate for each token t
// is tf(t)*idf(t), L2-normalized. If the vocabulary is empty, returns a
// zero-length vector rather than failing.
func (e *Embedder) Embed(text string) []float32 {
	if e.vocab.Len() == 0 {
		return nil
	}

	tokens := textproc.Tokenize(text)
	if len(tokens) == 0 {
		return make([]float32, e.vocab.Len())
	}

	counts := make(map[string]int)
	for _, t := range tokens {
		counts[t]++
	}

	vec := make([]float64, e.vocab.Len())
	total := float64(len(tokens))
	for tok, count := range counts {
		id, ok := e.vocab.TokenToID[tok]
		if !ok {
			continue
		}
		tf := float64(count) / total
		idf := e.vocab.IDF[tok]
		vec[id] = tf * idf
	}

	return l2Normalize(vec)
}

// EmbedBatch embeds each text in texts, in order.
func (e *Embedder) EmbedBatch(texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.Embed(t)
	}
	return out
}

// Similarity returns the cosine similarity of a and b, 0.0 on
// length-mismatch or when either vector is the zero vector.
func Similarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func l2Normalize(vec []float64) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	out := make([]float32, len(vec))
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
