// Package usage tracks how a project uses semisearch over time: command
// counts and query-mode counts, persisted as small JSON next to the
// project's index so progressive hints (internal/hints) have something to
// reason about.
package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Stats is the on-disk usage record for one project.
type Stats struct {
	FirstSeen    time.Time      `json:"first_seen"`
	LastSeen     time.Time      `json:"last_seen"`
	SearchCount  int            `json:"search_count"`
	IndexCount   int            `json:"index_count"`
	ModeCounts   map[string]int `json:"mode_counts"`
	NoMatchCount int            `json:"no_match_count"`
}

const fileName = "usage.json"
const lockName = ".usage.lock"

// Path returns the usage file path under a .semisearch state directory.
func Path(stateDir string) string {
	return filepath.Join(stateDir, fileName)
}

// Load reads stats from stateDir, returning a zero-value Stats if the file
// doesn't exist yet.
func Load(stateDir string) (Stats, error) {
	raw, err := os.ReadFile(Path(stateDir))
	if os.IsNotExist(err) {
		return Stats{ModeCounts: map[string]int{}}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return Stats{}, err
	}
	if s.ModeCounts == nil {
		s.ModeCounts = map[string]int{}
	}
	return s, nil
}

// RecordSearch loads, updates, and persists stats for one search call,
// guarded by a file lock so concurrent processes don't clobber each other.
func RecordSearch(stateDir, mode string, matched bool) error {
	return withLock(stateDir, func(s *Stats) {
		now := time.Now()
		if s.FirstSeen.IsZero() {
			s.FirstSeen = now
		}
		s.LastSeen = now
		s.SearchCount++
		s.ModeCounts[mode]++
		if !matched {
			s.NoMatchCount++
		}
	})
}

// RecordIndex records one index run.
func RecordIndex(stateDir string) error {
	return withLock(stateDir, func(s *Stats) {
		now := time.Now()
		if s.FirstSeen.IsZero() {
			s.FirstSeen = now
		}
		s.LastSeen = now
		s.IndexCount++
	})
}

func withLock(stateDir string, mutate func(*Stats)) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}
	fl := flock.New(filepath.Join(stateDir, lockName))
	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()

	s, err := Load(stateDir)
	if err != nil {
		return err
	}
	mutate(&s)

	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(stateDir), raw, 0o644)
}
