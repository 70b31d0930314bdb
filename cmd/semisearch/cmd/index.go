package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/config"
	"github.com/amanmcp/semisearch/internal/embed"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
	"github.com/amanmcp/semisearch/internal/indexer"
	"github.com/amanmcp/semisearch/internal/scanner"
	"github.com/amanmcp/semisearch/internal/store"
	"github.com/amanmcp/semisearch/internal/usage"
)

// vocabularyFileName is where a built TF-IDF vocabulary is persisted
// alongside the index database, so a later `search` invocation can load it
// instead of rebuilding it from the corpus.
const vocabularyFileName = "vocabulary.json"

var (
	flagIndexForce      bool
	flagIndexChunkSize  int
	flagIndexWindowed   bool
	flagIndexSemantic   bool
	flagIndexNoSemantic bool
	flagIndexBatchSize  int
	flagIndexWorkers    int
)

func newIndexCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or refresh the local search index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runIndex(cmd, path)
		},
	}
	c.Flags().BoolVar(&flagIndexForce, "force", false, "Purge and fully rebuild the index")
	c.Flags().IntVar(&flagIndexChunkSize, "chunk-size", 0, "Lines per chunk in windowed mode (0 disables windowing)")
	c.Flags().BoolVar(&flagIndexWindowed, "windowed", false, "Use overlapping line windows instead of single-line chunks")
	c.Flags().BoolVar(&flagIndexSemantic, "semantic", false, "Build a TF-IDF vocabulary and store chunk embeddings")
	c.Flags().BoolVar(&flagIndexNoSemantic, "no-semantic", false, "Disable embeddings (default)")
	c.MarkFlagsMutuallyExclusive("semantic", "no-semantic")
	c.Flags().IntVar(&flagIndexBatchSize, "batch-size", 0, "Chunks per embedding batch (0 uses the indexer default)")
	c.Flags().IntVar(&flagIndexWorkers, "workers", 0, "Concurrent file workers (0 uses the indexer default)")
	return c
}

// indexerConfigFrom maps the merged project configuration onto the
// indexer's knobs; CLI flags override individual fields afterwards.
func indexerConfigFrom(c *config.Config) indexer.Config {
	return indexer.Config{
		MaxFileSizeMB:    int64(c.Performance.MaxFileSizeMB),
		IncludePatterns:  c.Paths.Include,
		ExcludePatterns:  c.Paths.Exclude,
		ChunkSize:        c.Search.ChunkSize,
		WindowOverlap:    c.Search.ChunkOverlap,
		WindowedChunks:   c.Search.ChunkSize > 0,
		EnableEmbeddings: c.Embeddings.Enabled,
		BatchSize:        c.Embeddings.BatchSize,
		Workers:          c.Performance.IndexWorkers,
		Submodules:       &c.Submodules,
	}
}

func runIndex(cmd *cobra.Command, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve index path", err)
	}

	dir := stateDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return searcherrors.PermissionError("cannot create .semisearch directory", err)
	}

	lock, err := store.AcquireWriterLock(dir + "/.write.lock")
	if err != nil {
		return searcherrors.DatabaseError("another indexer is already running here", err)
	}
	defer lock.Release()

	st, err := store.Open(dir + "/index.db")
	if err != nil {
		return searcherrors.DatabaseError("cannot open index database", err)
	}
	defer st.Close()

	sc, err := scanner.New()
	if err != nil {
		return searcherrors.GenericError("cannot start file scanner", err)
	}

	projCfg, err := config.Load(root)
	if err != nil {
		projCfg = config.NewConfig()
	}

	cfg := indexerConfigFrom(projCfg)
	cfg.ForceReindex = flagIndexForce
	if flagIndexWindowed {
		cfg.WindowedChunks = true
	}
	if flagIndexChunkSize > 0 {
		cfg.ChunkSize = flagIndexChunkSize
		cfg.WindowedChunks = true
	}
	if flagIndexBatchSize > 0 {
		cfg.BatchSize = flagIndexBatchSize
	}
	if flagIndexWorkers > 0 {
		cfg.Workers = flagIndexWorkers
	}
	switch {
	case flagIndexSemantic:
		cfg.EnableEmbeddings = true
	case flagIndexNoSemantic:
		cfg.EnableEmbeddings = false
	}

	w := newOutputWriter()

	var embedder *embed.Embedder
	if cfg.EnableEmbeddings {
		vocabPath := dir + "/" + vocabularyFileName
		vocabIx := indexer.New(st, sc, nil)
		vocab, err := vocabIx.BuildVocabulary(cmd.Context(), root, cfg)
		if err != nil {
			return searcherrors.New(searcherrors.ErrCodeIndexFailed, "building vocabulary failed", err)
		}
		if err := embed.Save(vocab, vocabPath); err != nil {
			w.Warningf("could not persist vocabulary: %s", err)
		}
		embedder = embed.New(vocab)
	}

	ix := indexer.New(st, sc, embedder)
	stats, err := ix.Run(cmd.Context(), root, cfg)
	if err != nil {
		return searcherrors.New(searcherrors.ErrCodeIndexFailed, "indexing failed", err)
	}

	_ = usage.RecordIndex(dir)

	w.Successf("indexed %d files (%d updated, %d chunks, %d skipped) in %s",
		stats.Processed, stats.Updated, stats.ChunkCount, stats.Skipped, stats.Elapsed)
	for _, fe := range stats.FileErrors {
		w.Warningf("%s: %s", fe.Path, fe.Err)
	}
	return nil
}
