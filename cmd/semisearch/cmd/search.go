package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/config"
	"github.com/amanmcp/semisearch/internal/engine"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
	"github.com/amanmcp/semisearch/internal/hints"
	"github.com/amanmcp/semisearch/internal/query"
	"github.com/amanmcp/semisearch/internal/store"
	"github.com/amanmcp/semisearch/internal/strategy"
	"github.com/amanmcp/semisearch/internal/usage"
)

// Basic flags, always visible.
var (
	flagFuzzy         bool
	flagExact         bool
	flagScore         float64
	flagLimit         int
	flagCaseSensitive bool
	flagTypoTolerance int
)

// Advanced flags, gated behind --advanced.
var (
	flagMode      string
	flagThreshold float64
	flagFormat    string
	flagFilesOnly bool
	flagContext   int
	flagRegex     bool
	flagInclude   []string
	flagExclude   []string
	flagBinary    bool
	flagFollow    bool
	flagPath      string
)

func registerSearchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagFuzzy, "fuzzy", false, "Use fuzzy (typo-tolerant) matching")
	cmd.Flags().BoolVar(&flagExact, "exact", false, "Exact matching only (regex mode, score floor 1.0)")
	cmd.Flags().Float64Var(&flagScore, "score", 0.3, "Minimum result score (0.0-1.0)")
	cmd.Flags().IntVar(&flagLimit, "limit", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&flagCaseSensitive, "case-sensitive", false, "Case-sensitive matching")
	cmd.Flags().IntVar(&flagTypoTolerance, "typo-tolerance", 2, "Maximum edit distance for fuzzy matching")

	cmd.Flags().StringVar(&flagMode, "mode", "auto", "Strategy: auto|keyword|fuzzy|regex|semantic|hybrid")
	cmd.Flags().Float64Var(&flagThreshold, "semantic-threshold", 0.6, "Score floor for semantic-only results")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text|json")
	cmd.Flags().BoolVar(&flagFilesOnly, "files-only", false, "Print matching file paths only")
	cmd.Flags().IntVar(&flagContext, "context", 0, "Lines of context to print around each match")
	cmd.Flags().BoolVar(&flagRegex, "regex", false, "Treat the query as a regular expression")
	cmd.Flags().StringSliceVar(&flagInclude, "include", nil, "Glob patterns to include")
	cmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "Glob patterns to exclude")
	cmd.Flags().BoolVar(&flagBinary, "include-binary", false, "Include binary files in the search")
	cmd.Flags().BoolVar(&flagFollow, "follow-links", false, "Follow symlinks while walking")
	cmd.Flags().StringVar(&flagPath, "path", ".", "Root directory to search")

	// Advanced flags stay parseable but out of --help until --advanced
	// reveals them.
	for _, name := range advancedFlagNames {
		_ = cmd.Flags().MarkHidden(name)
	}
}

// advancedFlagNames lists every flag gated behind --advanced.
var advancedFlagNames = []string{
	"mode", "semantic-threshold", "format", "files-only", "context",
	"regex", "include", "exclude", "include-binary", "follow-links", "path",
}

// revealAdvancedFlags unhides the advanced flag set on cmd once --advanced
// has been parsed.
func revealAdvancedFlags(cmd *cobra.Command) {
	for _, name := range advancedFlagNames {
		if f := cmd.Flags().Lookup(name); f != nil {
			f.Hidden = false
		}
	}
}

func newSearchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the current project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args)
		},
	}
	registerSearchFlags(c)
	return c
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return searcherrors.InvalidQueryError("query must not be empty", nil)
	}

	root, err := resolveRoot(flagPath)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve search path", err)
	}

	opts := engine.DefaultOptions()
	opts.MinScore = flagScore
	opts.MaxResults = flagLimit
	opts.CaseSensitive = flagCaseSensitive
	opts.MaxEditDistance = flagTypoTolerance
	opts.IncludePatterns = flagInclude
	opts.ExcludePatterns = flagExclude
	opts.FollowSymlinks = flagFollow
	opts.IncludeBinary = flagBinary
	opts.ProjectHint = projectHintFor(config.DetectProjectType(root))

	mode := engine.ModeAuto
	switch {
	case flagRegex:
		mode = engine.ModeRegex
	case flagExact:
		// Exact means literal regex matching with only perfect-score hits.
		mode = engine.ModeRegex
		opts.MinScore = 1.0
	case flagFuzzy:
		mode = engine.ModeFuzzy
	case advancedMode && flagMode != "" && flagMode != "auto":
		mode = engine.Mode(flagMode)
	}

	if mode == engine.ModeSemantic && cmd.Flags().Changed("semantic-threshold") {
		opts.MinScore = flagThreshold
	}

	var st *store.Store
	dbPath := stateDir(root) + "/index.db"
	if s, openErr := store.Open(dbPath); openErr == nil {
		st = s
		defer st.Close()
	}

	e := engine.New(st)
	results, err := e.SearchWithMode(cmd.Context(), query, root, mode, opts)
	if err != nil {
		return searcherrors.GenericError("search failed", err)
	}

	// A usage-tracking failure never blocks a search result.
	_ = usage.RecordSearch(stateDir(root), string(mode), len(results) > 0)
	if !jsonRequested(flagFormat) {
		printHints(root)
	}

	if len(results) == 0 {
		if jsonRequested(flagFormat) {
			return printJSON([]strategy.Result{})
		}
		return searcherrors.NoMatchesError(fmt.Sprintf("no matches for %q", query), nil)
	}

	if jsonRequested(flagFormat) {
		return printJSON(results)
	}
	return printResults(results, flagFilesOnly, flagContext)
}

// projectHintFor maps a detected project type onto the query analyzer's
// advisory hint: any recognized source tree counts as code-heavy.
func projectHintFor(pt config.ProjectType) query.ProjectHint {
	switch pt {
	case config.ProjectTypeGo, config.ProjectTypeNode, config.ProjectTypePython:
		return query.HintCodeHeavy
	default:
		return query.HintNone
	}
}

func printHints(root string) {
	stats, err := usage.Load(stateDir(root))
	if err != nil {
		return
	}
	w := newOutputWriter()
	for _, h := range hints.For(stats) {
		w.Statusf("💡", "%s", h.Message)
	}
}

func printJSON(results []strategy.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func printResults(results []strategy.Result, filesOnly bool, context int) error {
	w := newOutputWriter()
	if filesOnly {
		w.FilesOnly(results)
		return nil
	}
	w.Results(results, context > 0)
	return nil
}
