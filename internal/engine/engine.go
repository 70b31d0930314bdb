// Package engine implements the router/engine (C7): end-to-end execution
// of a query, from query classification through strategy dispatch,
// fallback, and result merging.
package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amanmcp/semisearch/internal/embed"
	"github.com/amanmcp/semisearch/internal/merge"
	"github.com/amanmcp/semisearch/internal/query"
	"github.com/amanmcp/semisearch/internal/store"
	"github.com/amanmcp/semisearch/internal/strategy"
)

// embedWorkers caps the worker pool used to embed candidate chunks that
// arrive without a stored vector, sized to min(cpu_count, 8).
const embedWorkers = 8

// Mode names the forced-dispatch entrypoint accepts; "auto" (or anything
// unrecognized) defers to the query analyzer.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeKeyword  Mode = "keyword"
	ModeFuzzy    Mode = "fuzzy"
	ModeRegex    Mode = "regex"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
	// ModeTfIdf is not one of the CLI's basic/advanced flag values; it
	// exists so the TF-IDF strategy (distinct from the vector strategy's
	// cosine-on-TF-IDF-embeddings scoring) is reachable for direct testing
	// and for `status`/`doctor` style diagnostics that want raw TF-IDF
	// relevance without the vector path's embedding normalization.
	ModeTfIdf Mode = "tfidf"
)

// Engine owns a store handle and the strategy set, dispatching each query
// to one or more strategies and merging their outputs.
type Engine struct {
	store *store.Store

	mu       sync.Mutex
	vocab    *embed.Vocabulary
	embedder *embed.Embedder
	builtFor string // path the cached vocabulary was last built over

	keyword strategy.Keyword
	fuzzy   strategy.Fuzzy
	regex   strategy.Regex
}

// New builds an Engine. st may be nil, in which case every search falls
// back to a live, unpersisted walk.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Search runs the end-to-end auto-routed search.
func (e *Engine) Search(ctx context.Context, q, path string, opts Options) ([]strategy.Result, error) {
	return e.SearchWithMode(ctx, q, path, ModeAuto, opts)
}

// SearchWithMode skips classification and dispatches directly to the
// named strategy; ModeAuto or an unrecognized mode name defers to the
// query analyzer.
func (e *Engine) SearchWithMode(ctx context.Context, q, path string, mode Mode, opts Options) ([]strategy.Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	candSet, err := e.gatherCandidates(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	sopts := opts.toStrategyOptions()

	var results []strategy.Result
	switch mode {
	case ModeKeyword:
		results, err = e.keyword.Rank(q, candSet.Candidates, sopts)
	case ModeFuzzy:
		results, err = e.fuzzy.Rank(q, candSet.Candidates, sopts)
	case ModeRegex:
		results, err = e.regex.Rank(q, candSet.Candidates, sopts)
	case ModeSemantic:
		results, err = e.runVector(ctx, q, path, candSet, sopts)
	case ModeTfIdf:
		results, err = e.runTfIdf(ctx, q, path, candSet, sopts)
	case ModeHybrid:
		results, err = e.runHybrid(ctx, q, path, candSet, sopts)
	default:
		results, err = e.runAuto(ctx, q, path, candSet, sopts, opts.ProjectHint)
	}
	if err != nil {
		return nil, err
	}

	return merge.Merge([][]strategy.Result{results}, merge.Options{
		MinScore:   opts.MinScore,
		MaxResults: opts.MaxResults,
	}), nil
}

// runAuto classifies the query, then dispatches per
// decision, including every defined fallback.
func (e *Engine) runAuto(ctx context.Context, q, path string, candSet candidateSet, sopts strategy.Options, hint query.ProjectHint) ([]strategy.Result, error) {
	analysis := query.ClassifyWithHint(q, hint)

	switch analysis.Decision {
	case query.KeywordOnly:
		results, err := e.keyword.Rank(q, candSet.Candidates, sopts)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return e.fuzzy.Rank(q, candSet.Candidates, sopts)
		}
		return results, nil

	case query.Adaptive:
		keywordResults, err := e.keyword.Rank(q, candSet.Candidates, sopts)
		if err != nil {
			return nil, err
		}
		if !isPoor(keywordResults) {
			return keywordResults, nil
		}

		vecResults, err := e.runVector(ctx, q, path, candSet, sopts)
		if err != nil {
			return nil, err
		}
		if len(vecResults) > 0 {
			return vecResults, nil
		}
		return e.fuzzy.Rank(q, candSet.Candidates, sopts)

	default: // SemanticOnly
		vecResults, err := e.runVector(ctx, q, path, candSet, sopts)
		if err != nil {
			return nil, err
		}
		if len(vecResults) > 0 {
			return vecResults, nil
		}
		if query.LooksLikeRegex(q) {
			return nil, nil
		}
		return e.fuzzy.Rank(q, candSet.Candidates, sopts)
	}
}

// isPoor is the adaptive-mode "poor results" test: empty,
// or mean score < 0.3 with no scored result >= 0.6.
func isPoor(results []strategy.Result) bool {
	if len(results) == 0 {
		return true
	}
	var sum float64
	best := 0.0
	for _, r := range results {
		sum += r.Score
		if r.Score > best {
			best = r.Score
		}
	}
	mean := sum / float64(len(results))
	return mean < 0.3 && best < 0.6
}

func (e *Engine) runHybrid(ctx context.Context, q, path string, candSet candidateSet, sopts strategy.Options) ([]strategy.Result, error) {
	keywordResults, err := e.keyword.Rank(q, candSet.Candidates, sopts)
	if err != nil {
		return nil, err
	}
	vecResults, err := e.runVector(ctx, q, path, candSet, sopts)
	if err != nil {
		return nil, err
	}
	return merge.Merge([][]strategy.Result{keywordResults, vecResults}, merge.Options{
		MinScore:   sopts.MinScore,
		MaxResults: -1, // unlimited; outer Search applies the final truncation
	}), nil
}

// runVector ensures the vector path is initialized for path (building a
// vocabulary over the current candidate texts if one hasn't been built
// yet) and runs the Vector strategy.
func (e *Engine) runVector(ctx context.Context, q, path string, candSet candidateSet, sopts strategy.Options) ([]strategy.Result, error) {
	embedder, err := e.ensureVectorPath(ctx, path, candSet.Candidates)
	if err != nil {
		return nil, err
	}
	v := strategy.Vector{Embedder: embedder, EnableExactBoost: true}
	if v.Resources().RequiresEmbeddings && embedder == nil {
		// The pick is infeasible without an embedder; the caller's
		// fallback chain takes over.
		return nil, nil
	}
	return v.Rank(q, candSet.Candidates, sopts)
}

// runTfIdf ensures a vocabulary is built over path's candidates and runs
// the (non-vector) TF-IDF strategy directly against it.
func (e *Engine) runTfIdf(ctx context.Context, q, path string, candSet candidateSet, sopts strategy.Options) ([]strategy.Result, error) {
	if _, err := e.ensureVectorPath(ctx, path, candSet.Candidates); err != nil {
		return nil, err
	}
	e.mu.Lock()
	vocab := e.vocab
	e.mu.Unlock()
	if vocab == nil {
		return nil, nil
	}
	t := strategy.TfIdf{Freqs: vocab}
	return t.Rank(q, candSet.Candidates, sopts)
}

// ensureVectorPath builds (or reuses) the TF-IDF vocabulary for path and
// fans out embedding of any candidate lacking a stored vector across a
// worker pool sized to min(cpu_count, 8).
func (e *Engine) ensureVectorPath(ctx context.Context, path string, candidates []strategy.Candidate) (*embed.Embedder, error) {
	e.mu.Lock()
	if e.embedder != nil && e.builtFor == path {
		embedder := e.embedder
		e.mu.Unlock()
		return embedder, nil
	}
	e.mu.Unlock()

	if len(candidates) == 0 {
		return nil, nil
	}

	// Prefer the vocabulary a prior `index --semantic` run persisted next
	// to the database: it is the one the stored embeddings were produced
	// under, so reusing it keeps them comparable.
	vocab := loadPersistedVocabulary(path)
	if vocab.Len() == 0 {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Text
		}
		vocab = embed.BuildVocabulary(texts)
	}
	embedder := embed.New(vocab)

	g, gctx := errgroup.WithContext(ctx)
	workers := embedWorkers
	if n := runtime.NumCPU(); n < workers {
		workers = n
	}
	g.SetLimit(workers)
	for i := range candidates {
		i := i
		// A stored embedding is only usable if it was produced under
		// this same vocabulary; a length mismatch means it came from a
		// different build and must be re-embedded, since vectors from
		// different vocabularies are not cosine-comparable.
		if len(candidates[i].Embedding) == vocab.Len() && vocab.Len() > 0 {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			candidates[i].Embedding = embedder.Embed(candidates[i].Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.vocab = vocab
	e.embedder = embedder
	e.builtFor = path
	e.mu.Unlock()

	return embedder, nil
}

// loadPersistedVocabulary returns the vocabulary saved under path's
// .semisearch directory, or nil when none was ever persisted there.
func loadPersistedVocabulary(path string) *embed.Vocabulary {
	vocab, err := embed.Load(filepath.Join(path, ".semisearch", "vocabulary.json"))
	if err != nil {
		return nil
	}
	return vocab
}
