package engine

import (
	"github.com/amanmcp/semisearch/internal/query"
	"github.com/amanmcp/semisearch/internal/strategy"
)

// Options is the per-call tunable record the CLI and any other caller
// hands the engine; it is a superset of strategy.Options plus mode
// selection, since the router needs to know the forced mode too.
type Options struct {
	MinScore float64
	// MaxResults caps the emitted list; zero means a search runs to
	// completion but emits nothing.
	MaxResults      int
	CaseSensitive   bool
	WholeWords      bool
	MaxEditDistance int

	// IncludePatterns/ExcludePatterns restrict a live (unindexed) walk to
	// matching glob patterns; empty IncludePatterns matches everything.
	IncludePatterns []string
	ExcludePatterns []string
	// FollowSymlinks follows symbolic links during a live walk.
	FollowSymlinks bool
	// IncludeBinary scores files that fail the UTF-8 validity check
	// instead of silently skipping them.
	IncludeBinary bool

	// ProjectHint is advisory context about the target directory's
	// project type, forwarded to the query analyzer. It perturbs only the
	// classifier's confidence, never its routing decision.
	ProjectHint query.ProjectHint
}

// DefaultOptions mirrors the CLI's documented defaults:
// min_score 0.3, max_results 10.
func DefaultOptions() Options {
	return Options{MinScore: 0.3, MaxResults: 10}
}

func (o Options) toStrategyOptions() strategy.Options {
	return strategy.Options{
		MinScore:        o.MinScore,
		MaxResults:      o.MaxResults,
		CaseSensitive:   o.CaseSensitive,
		WholeWords:      o.WholeWords,
		MaxEditDistance: o.MaxEditDistance,
	}
}
