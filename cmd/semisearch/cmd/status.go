package cmd

import (
	"github.com/spf13/cobra"

	"github.com/amanmcp/semisearch/internal/embed"
	searcherrors "github.com/amanmcp/semisearch/internal/errors"
	"github.com/amanmcp/semisearch/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Show index statistics and embedding capability for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runStatus(cmd, path)
		},
	}
}

func runStatus(cmd *cobra.Command, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return searcherrors.DirectoryAccessError("cannot resolve path", err)
	}

	dbPath := stateDir(root) + "/index.db"
	st, err := store.Open(dbPath)
	if err != nil {
		return searcherrors.DatabaseError("cannot open index database", err)
	}
	defer st.Close()

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return searcherrors.DatabaseError("cannot read index stats", err)
	}

	vocabLen := 0
	if vocab, err := embed.Load(stateDir(root) + "/" + vocabularyFileName); err == nil {
		vocabLen = vocab.Len()
	}

	w := newOutputWriter()
	w.Statusf("", "root:       %s", root)
	w.Statusf("", "files:      %d", stats.FileCount)
	w.Statusf("", "chunks:     %d", stats.ChunkCount)
	w.Statusf("", "bytes:      %d", stats.TotalBytes)
	w.Statusf("", "vocabulary: %d tokens", vocabLen)
	w.Statusf("", "capability: %s", embed.Detect(vocabLen))
	if stats.FileCount == 0 {
		w.Warning("no index found; run 'semisearch index' first")
	}
	return nil
}
