package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/amanmcp/semisearch/internal/embed"
	"github.com/amanmcp/semisearch/internal/scanner"
	"github.com/amanmcp/semisearch/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIndexerRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("this is a reasonably long line of text\nshort\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := newTestStore(t)
	sc, err := scanner.New()
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	ix := New(st, sc, nil)

	ctx := context.Background()
	stats1, err := ix.Run(ctx, root, Config{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if stats1.Updated == 0 {
		t.Fatalf("expected the first run to update at least one file, got %+v", stats1)
	}

	stats2, err := ix.Run(ctx, root, Config{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats2.Updated != 0 {
		t.Fatalf("expected zero files updated on unchanged re-run, got %d", stats2.Updated)
	}

	stCount, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stCount.FileCount != 1 {
		t.Fatalf("expected 1 file in store, got %d", stCount.FileCount)
	}
}

func TestIndexerForceReindexPurges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	if err := os.WriteFile(path, []byte("this is a reasonably long line of text\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := newTestStore(t)
	sc, err := scanner.New()
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	ix := New(st, sc, nil)
	ctx := context.Background()

	if _, err := ix.Run(ctx, root, Config{}); err != nil {
		t.Fatalf("initial run: %v", err)
	}
	if _, err := ix.Run(ctx, root, Config{ForceReindex: true}); err != nil {
		t.Fatalf("force reindex run: %v", err)
	}

	stCount, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stCount.FileCount != 1 {
		t.Fatalf("expected force reindex to re-populate exactly 1 file, got %d", stCount.FileCount)
	}
}

func TestIndexerOnlyEmbedsWhenEnabled(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("this is a reasonably long line of text\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sc, err := scanner.New()
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	vocab := embed.BuildVocabulary([]string{"this is a reasonably long line of text"})
	embedder := embed.New(vocab)

	st := newTestStore(t)
	ix := New(st, sc, embedder)
	ctx := context.Background()

	if _, err := ix.Run(ctx, root, Config{EnableEmbeddings: false}); err != nil {
		t.Fatalf("run without embeddings: %v", err)
	}
	chunks, err := st.ChunksWithEmbeddings(ctx)
	if err != nil {
		t.Fatalf("chunks with embeddings: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no embeddings stored when EnableEmbeddings is false, got %d", len(chunks))
	}

	if _, err := ix.Run(ctx, root, Config{ForceReindex: true, EnableEmbeddings: true}); err != nil {
		t.Fatalf("run with embeddings: %v", err)
	}
	chunks, err = st.ChunksWithEmbeddings(ctx)
	if err != nil {
		t.Fatalf("chunks with embeddings: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk with a stored embedding, got %d", len(chunks))
	}
}
