package engine

import (
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/amanmcp/semisearch/internal/config"
	"github.com/amanmcp/semisearch/internal/scanner"
	"github.com/amanmcp/semisearch/internal/store"
	"github.com/amanmcp/semisearch/internal/strategy"
	"github.com/amanmcp/semisearch/internal/textproc"
)

// candidateSet is the file list one search resolves to before any
// strategy runs: either pulled from the persisted index, or walked live
// when no index is available for path. Each candidate carries its chunk
// text, so the vector path can build a vocabulary without re-reading files.
type candidateSet struct {
	Candidates []strategy.Candidate
	FromIndex  bool
}

// gatherCandidates prefers the persisted index
// when it has rows for path, otherwise fall back to a live, unpersisted
// walk honoring the indexer's own ignore/exclusion policy.
func (e *Engine) gatherCandidates(ctx context.Context, path string, opts Options) (candidateSet, error) {
	if e.store != nil {
		abs, err := filepath.Abs(path)
		if err == nil {
			chunks, files, err := e.store.AllChunksUnderRoot(ctx, abs)
			if err == nil && len(chunks) > 0 {
				return candidateSet{Candidates: toCandidates(chunks, pathsByFileID(files)), FromIndex: true}, nil
			}
		}
	}

	cands, err := e.walkLive(ctx, path, opts)
	if err != nil {
		return candidateSet{}, err
	}
	return candidateSet{Candidates: cands, FromIndex: false}, nil
}

// pathsByFileID builds a FileID -> path lookup from AllChunksUnderRoot's
// accompanying File rows.
func pathsByFileID(files []store.File) map[int64]string {
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}
	return paths
}

func toCandidates(chunks []store.Chunk, paths map[int64]string) []strategy.Candidate {
	out := make([]strategy.Candidate, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, strategy.Candidate{
			FilePath:  paths[c.FileID],
			Line:      c.Line,
			Text:      c.Text,
			Embedding: c.Embedding,
		})
	}
	return out
}

// walkLive reads each file under path during scoring rather than
// persisting anything, for a path the indexer hasn't visited yet.
func (e *Engine) walkLive(ctx context.Context, path string, opts Options) ([]strategy.Candidate, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, err
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, statErr
	}

	var files []string
	if !info.IsDir() {
		files = []string{path}
	} else {
		results, err := sc.Scan(ctx, &scanner.ScanOptions{
			RootDir:          path,
			IncludePatterns:  opts.IncludePatterns,
			ExcludePatterns:  opts.ExcludePatterns,
			RespectGitignore: true,
			FollowSymlinks:   opts.FollowSymlinks,
			Submodules:       &config.SubmoduleConfig{Enabled: false},
		})
		if err != nil {
			return nil, err
		}
		for res := range results {
			if ctx.Err() != nil {
				return nil, nil
			}
			if res.Error != nil || res.File == nil {
				continue
			}
			files = append(files, res.File.AbsPath)
		}
	}

	var candidates []strategy.Candidate
	for _, f := range files {
		select {
		case <-ctx.Done():
			return candidates, nil
		default:
		}

		raw, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if !utf8.Valid(raw) && !opts.IncludeBinary {
			continue
		}
		for _, c := range textproc.Process(string(raw)) {
			candidates = append(candidates, strategy.Candidate{
				FilePath: f,
				Line:     c.Line,
				Text:     c.Content,
			})
		}
	}
	return candidates, nil
}
