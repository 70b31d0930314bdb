// Package embed implements the TF-IDF baseline embedder: a deterministic,
// fixed-dimension, cosine-comparable text-to-vector contract that an
// alternative neural embedder could satisfy in its place.
package embed

import (
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// Vocabulary is the pair (token -> id, token -> IDF) built from a corpus of
// documents. Size is bounded by the number of distinct tokens. DocFreq and
// N (document frequency per token, and total document count) are kept
// alongside IDF so strategy.TfIdf can recompute per-query IDF without
// re-deriving it from the pre-baked weight.
type Vocabulary struct {
	TokenToID map[string]int     `json:"token_to_id"`
	IDF       map[string]float64 `json:"idf"`
	DocFreq   map[string]int     `json:"doc_freq"`
	N         int                `json:"n"`
}

// vocabularyFile is the self-describing JSON document Save/Load round-trip.
type vocabularyFile struct {
	Version   int                `json:"version"`
	TokenToID map[string]int     `json:"token_to_id"`
	IDF       map[string]float64 `json:"idf"`
	DocFreq   map[string]int     `json:"doc_freq"`
	N         int                `json:"n"`
}

// DF returns the document frequency of token and the total document count
// the vocabulary was built from, satisfying strategy.DocFrequency.
func (v *Vocabulary) DF(token string) (df, n int) {
	if v == nil {
		return 0, 0
	}
	return v.DocFreq[token], v.N
}

const vocabularyFileVersion = 1

// BuildVocabulary builds the token->id and token->IDF maps from documents.
// Tokenization matches textproc.Tokenize so the embedder and the query
// analyzer never disagree about what a token is. IDF(t) = ln(N/df(t)).
func BuildVocabulary(documents []string) *Vocabulary {
	df := make(map[string]int)
	n := len(documents)

	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, tok := range textproc.Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	v := &Vocabulary{
		TokenToID: make(map[string]int, len(df)),
		IDF:       make(map[string]float64, len(df)),
		DocFreq:   df,
		N:         n,
	}

	// Ids are assigned in sorted token order so two builds over the same
	// corpus produce the same vocabulary, keeping embeddings from separate
	// runs comparable.
	tokens := make([]string, 0, len(df))
	for tok := range df {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for id, tok := range tokens {
		v.TokenToID[tok] = id
		if count := df[tok]; n > 0 && count > 0 {
			v.IDF[tok] = math.Log(float64(n) / float64(count))
		}
	}
	return v
}

// Len reports the vocabulary size (the dimension of every vector it
// produces).
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.TokenToID)
}

// Save persists the vocabulary as a self-describing JSON document.
func Save(v *Vocabulary, path string) error {
	doc := vocabularyFile{
		Version:   vocabularyFileVersion,
		TokenToID: v.TokenToID,
		IDF:       v.IDF,
		DocFreq:   v.DocFreq,
		N:         v.N,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load restores a vocabulary previously written by Save.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc vocabularyFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &Vocabulary{TokenToID: doc.TokenToID, IDF: doc.IDF, DocFreq: doc.DocFreq, N: doc.N}, nil
}
