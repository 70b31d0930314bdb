// Package store persists files and chunks in an embedded SQLite database:
// the durable mapping {file -> chunks, embeddings} the indexer writes and
// every search strategy reads from.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS files (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	path       TEXT NOT NULL UNIQUE,
	hash       TEXT NOT NULL,
	mtime      INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	indexed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	line    INTEGER NOT NULL,
	start   INTEGER NOT NULL,
	end     INTEGER NOT NULL,
	text    TEXT NOT NULL,
	embedding BLOB
);

CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
`

// Store is a single-writer, concurrent-reader SQLite-backed store of files
// and chunks. The indexer holds the writer across a directory walk; readers
// observe whatever has been committed so far.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path, applying the
// schema and the WAL/busy-timeout pragmas that let queries read while the
// indexer writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	// The pool holds up to 8 connections shared by readers and writers; a
	// connection that finds the database locked waits on the busy timeout
	// set in the DSN instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(8)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertFile atomically creates or replaces the file row for path. Prior
// chunks for that path are removed before the caller inserts new ones.
func (s *Store) UpsertFile(ctx context.Context, path, hash string, mtime time.Time, size int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert_file: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO files (path, hash, mtime, size, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			mtime = excluded.mtime,
			size = excluded.size,
			indexed_at = excluded.indexed_at
	`, path, hash, mtime.Unix(), size, now)
	if err != nil {
		return 0, fmt.Errorf("upsert file row: %w", err)
	}

	var fileID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM files WHERE path = ?`, path).Scan(&fileID); err != nil {
		return 0, fmt.Errorf("read file id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID); err != nil {
		return 0, fmt.Errorf("clear stale chunks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert_file: %w", err)
	}

	_ = res
	return fileID, nil
}

// InsertChunk inserts one chunk row belonging to fileID.
func (s *Store) InsertChunk(ctx context.Context, fileID int64, line, start, end int, text string, embedding []float32) error {
	var blob []byte
	if len(embedding) > 0 {
		blob = encodeEmbedding(embedding)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (file_id, line, start, end, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fileID, line, start, end, text, blob)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// NeedsReindex reports whether path has no row yet or its stored hash
// differs from hash. This is a total-ordering-of-bytes comparison, not
// mtime-based.
func (s *Store) NeedsReindex(ctx context.Context, path, hash string) (bool, error) {
	var storedHash string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM files WHERE path = ?`, path).Scan(&storedHash)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query hash: %w", err)
	}
	return storedHash != hash, nil
}

// GetFileByPath returns the file record for path, or nil if absent.
func (s *Store) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, hash, mtime, size, indexed_at FROM files WHERE path = ?
	`, path)

	var f File
	var mtime, indexedAt int64
	if err := row.Scan(&f.ID, &f.Path, &f.Hash, &mtime, &f.Size, &indexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query file: %w", err)
	}
	f.MTime = time.Unix(mtime, 0)
	f.IndexedAt = time.Unix(indexedAt, 0)
	return &f, nil
}

// SubstringSearch performs case-insensitive content substring matching,
// emitting results in insertion order. It is strictly a recall primitive
// for the keyword strategy, not a scored ranking.
func (s *Store) SubstringSearch(ctx context.Context, needle string, limit int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.file_id, c.line, c.start, c.end, c.text, c.embedding
		FROM chunks c
		WHERE lower(c.text) LIKE '%' || lower(?) || '%' ESCAPE '\'
		ORDER BY c.id ASC
		LIMIT ?
	`, escapeLike(needle), limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunksForFile returns every chunk belonging to fileID, in storage order.
func (s *Store) ChunksForFile(ctx context.Context, fileID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, line, start, end, text, embedding
		FROM chunks WHERE file_id = ? ORDER BY id ASC
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("query chunks for file: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunksWithEmbeddings returns every chunk carrying a non-empty embedding.
func (s *Store) ChunksWithEmbeddings(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, line, start, end, text, embedding
		FROM chunks WHERE embedding IS NOT NULL AND length(embedding) > 0
	`)
	if err != nil {
		return nil, fmt.Errorf("query chunks with embeddings: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// AllChunksUnderRoot returns every chunk whose file path is under root,
// joined with its owning file, for live-walk-free scoring against a
// persisted index.
func (s *Store) AllChunksUnderRoot(ctx context.Context, root string) ([]Chunk, []File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.path, f.hash, f.mtime, f.size, f.indexed_at
		FROM files f WHERE f.path = ? OR f.path LIKE ? ESCAPE '\'
	`, root, escapeLike(root)+string(filepathSeparator)+"%")
	if err != nil {
		return nil, nil, fmt.Errorf("query files under root: %w", err)
	}
	var files []File
	for rows.Next() {
		var f File
		var mtime, indexedAt int64
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &mtime, &f.Size, &indexedAt); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan file: %w", err)
		}
		f.MTime = time.Unix(mtime, 0)
		f.IndexedAt = time.Unix(indexedAt, 0)
		files = append(files, f)
	}
	rows.Close()

	var chunks []Chunk
	for _, f := range files {
		cs, err := s.ChunksForFile(ctx, f.ID)
		if err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, cs...)
	}
	return chunks, files, nil
}

// RemoveFile removes the file row at path; its chunks cascade.
func (s *Store) RemoveFile(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// RemoveAllUnderRoot deletes every file (and cascading chunks) whose path
// is root or nested under root. Used by force-reindex.
func (s *Store) RemoveAllUnderRoot(ctx context.Context, root string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM files WHERE path = ? OR path LIKE ? ESCAPE '\'
	`, root, escapeLike(root)+string(filepathSeparator)+"%")
	if err != nil {
		return fmt.Errorf("remove all under root: %w", err)
	}
	return nil
}

// Stats reports file count, chunk count, and total indexed bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COALESCE(SUM(size), 0) FROM files)
	`)
	if err := row.Scan(&st.FileCount, &st.ChunkCount, &st.TotalBytes); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.FileID, &c.Line, &c.Start, &c.End, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(blob) > 0 {
			c.Embedding = decodeEmbedding(blob)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	n := len(buf) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

const filepathSeparator = '/'
