// Package indexer reconciles the durable store with a directory subtree:
// walk, change detection, chunking, and persistence (C3).
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/amanmcp/semisearch/internal/config"
	"github.com/amanmcp/semisearch/internal/embed"
	"github.com/amanmcp/semisearch/internal/scanner"
	"github.com/amanmcp/semisearch/internal/store"
	"github.com/amanmcp/semisearch/internal/textproc"
)

// Config carries the indexer's recognized options.
type Config struct {
	MaxFileSizeMB      int64
	ExcludedExtensions []string // lowercase, without dot
	ExcludedDirs       []string // matched by basename, anywhere in ancestry
	IncludePatterns    []string // glob patterns; empty includes everything
	ExcludePatterns    []string // glob patterns applied during the walk
	ChunkSize          int      // lines; drives windowed mode when WindowedChunks is set
	WindowOverlap      int
	WindowedChunks     bool
	EnableEmbeddings   bool
	ForceReindex       bool
	Workers            int // concurrent file readers; default DefaultWorkers
	BatchSize          int // chunks per EmbedBatch call; default DefaultBatchSize

	// Submodules opts into git submodule discovery during the walk;
	// nil leaves it disabled.
	Submodules *config.SubmoduleConfig
}

// submoduleConfig returns the configured submodule policy, defaulting to
// disabled.
func (c Config) submoduleConfig() *config.SubmoduleConfig {
	if c.Submodules != nil {
		return c.Submodules
	}
	return &config.SubmoduleConfig{Enabled: false}
}

// DefaultMaxFileSizeMB bounds a single file's size before it's rejected.
const DefaultMaxFileSizeMB = 10

// DefaultWorkers bounds how many files are read/chunked/embedded
// concurrently when Config.Workers is unset.
const DefaultWorkers = 4

// DefaultBatchSize bounds how many chunk texts are embedded per
// EmbedBatch call when Config.BatchSize is unset.
const DefaultBatchSize = 32

// Stats accumulates one run's outcome; errors never abort the walk.
type Stats struct {
	Processed  int
	Updated    int
	Skipped    int
	TotalBytes int64
	ChunkCount int
	Elapsed    time.Duration
	FileErrors []FileError
}

// FileError is one per-file failure recorded during a run.
type FileError struct {
	Path string
	Err  string
}

// Indexer reconciles store with a directory subtree.
type Indexer struct {
	store    *store.Store
	scanner  *scanner.Scanner
	embedder *embed.Embedder // nil when embeddings are disabled/unavailable
}

// New builds an Indexer over an already-open store. embedder may be nil;
// Run will skip embedding even when cfg.EnableEmbeddings is set.
func New(st *store.Store, sc *scanner.Scanner, embedder *embed.Embedder) *Indexer {
	return &Indexer{store: st, scanner: sc, embedder: embedder}
}

// Run walks root, reconciling the store with what's on disk. A
// store-level failure is fatal and returned; per-file errors are recorded
// in Stats and never abort the walk.
func (ix *Indexer) Run(ctx context.Context, root string, cfg Config) (Stats, error) {
	start := time.Now()
	var stats Stats

	if cfg.ForceReindex {
		if err := ix.store.RemoveAllUnderRoot(ctx, root); err != nil {
			return stats, fmt.Errorf("force reindex: purge existing chunks: %w", err)
		}
	}

	maxSize := cfg.MaxFileSizeMB
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSizeMB
	}

	scanOpts := &scanner.ScanOptions{
		RootDir:          root,
		IncludePatterns:  cfg.IncludePatterns,
		ExcludePatterns:  cfg.ExcludePatterns,
		RespectGitignore: true,
		FollowSymlinks:   false,
		MaxFileSize:      maxSize * 1024 * 1024,
		Submodules:       cfg.submoduleConfig(),
	}

	results, err := ix.scanner.Scan(ctx, scanOpts)
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", root, err)
	}

	excludedExt := toSet(cfg.ExcludedExtensions)
	excludedDirs := toSet(cfg.ExcludedDirs)

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

loop:
	for res := range results {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		res := res
		if res.Error != nil {
			mu.Lock()
			stats.Skipped++
			stats.FileErrors = append(stats.FileErrors, FileError{Path: "", Err: res.Error.Error()})
			mu.Unlock()
			continue
		}
		f := res.File
		if f == nil {
			continue
		}

		if inAncestry(f.AbsPath, excludedDirs) {
			continue
		}
		if excludedExt[strings.ToLower(strings.TrimPrefix(extOf(f.AbsPath), "."))] {
			continue
		}

		g.Go(func() error {
			var local Stats
			if err := ix.processFile(gctx, f.AbsPath, cfg, &local); err != nil {
				local.Skipped++
				local.FileErrors = append(local.FileErrors, FileError{Path: f.AbsPath, Err: err.Error()})
			}
			mu.Lock()
			mergeStats(&stats, local)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats.Elapsed = time.Since(start)
	return stats, nil
}

func mergeStats(total *Stats, partial Stats) {
	total.Processed += partial.Processed
	total.Updated += partial.Updated
	total.Skipped += partial.Skipped
	total.TotalBytes += partial.TotalBytes
	total.ChunkCount += partial.ChunkCount
	total.FileErrors = append(total.FileErrors, partial.FileErrors...)
}

func (ix *Indexer) processFile(ctx context.Context, path string, cfg Config, stats *Stats) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(raw) {
		return fmt.Errorf("binary file, not indexed")
	}

	hash := fingerprint(raw)
	needs, err := ix.store.NeedsReindex(ctx, path, hash)
	if err != nil {
		return fmt.Errorf("needs_reindex: %w", err)
	}
	stats.Processed++
	if !needs {
		return nil
	}

	fileID, err := ix.store.UpsertFile(ctx, path, hash, info.ModTime(), info.Size())
	if err != nil {
		return fmt.Errorf("upsert_file: %w", err)
	}

	var chunks []textproc.Chunk
	if cfg.WindowedChunks && cfg.ChunkSize > 0 {
		chunks = textproc.ProcessWindowed(string(raw), cfg.ChunkSize, cfg.WindowOverlap)
	} else {
		chunks = textproc.Process(string(raw))
	}
	embeddings := make([][]float32, len(chunks))
	if cfg.EnableEmbeddings && ix.embedder != nil {
		batchSize := cfg.BatchSize
		if batchSize <= 0 {
			batchSize = DefaultBatchSize
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		for start := 0; start < len(texts); start += batchSize {
			end := start + batchSize
			if end > len(texts) {
				end = len(texts)
			}
			copy(embeddings[start:end], ix.embedder.EmbedBatch(texts[start:end]))
		}
	}

	for i, c := range chunks {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := ix.store.InsertChunk(ctx, fileID, c.Line, c.Start, c.End, c.Content, embeddings[i]); err != nil {
			return fmt.Errorf("insert_chunk: %w", err)
		}
	}

	stats.Updated++
	stats.TotalBytes += info.Size()
	stats.ChunkCount += len(chunks)
	return nil
}

// BuildVocabulary walks root the same way Run does and builds a TF-IDF
// vocabulary over every chunk's text, without touching the store. Callers
// that want embeddings produced during Run should build (and typically
// persist, via embed.Save) a vocabulary this way first, then construct an
// Embedder over it and pass it to New.
func (ix *Indexer) BuildVocabulary(ctx context.Context, root string, cfg Config) (*embed.Vocabulary, error) {
	maxSize := cfg.MaxFileSizeMB
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSizeMB
	}

	scanOpts := &scanner.ScanOptions{
		RootDir:          root,
		IncludePatterns:  cfg.IncludePatterns,
		ExcludePatterns:  cfg.ExcludePatterns,
		RespectGitignore: true,
		FollowSymlinks:   false,
		MaxFileSize:      maxSize * 1024 * 1024,
		Submodules:       cfg.submoduleConfig(),
	}

	results, err := ix.scanner.Scan(ctx, scanOpts)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	excludedExt := toSet(cfg.ExcludedExtensions)
	excludedDirs := toSet(cfg.ExcludedDirs)

	var texts []string
	for res := range results {
		select {
		case <-ctx.Done():
			return embed.BuildVocabulary(texts), nil
		default:
		}

		if res.Error != nil || res.File == nil {
			continue
		}
		f := res.File
		if inAncestry(f.AbsPath, excludedDirs) {
			continue
		}
		if excludedExt[strings.ToLower(strings.TrimPrefix(extOf(f.AbsPath), "."))] {
			continue
		}

		raw, err := os.ReadFile(f.AbsPath)
		if err != nil || !utf8.Valid(raw) {
			continue
		}
		for _, c := range textproc.Process(string(raw)) {
			texts = append(texts, c.Content)
		}
	}

	return embed.BuildVocabulary(texts), nil
}

func fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[strings.ToLower(i)] = true
	}
	return set
}

func inAncestry(path string, excludedDirs map[string]bool) bool {
	if len(excludedDirs) == 0 {
		return false
	}
	parts := strings.Split(path, string(os.PathSeparator))
	for _, p := range parts {
		if excludedDirs[p] {
			return true
		}
	}
	return false
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}
