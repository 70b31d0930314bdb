package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amanmcp/semisearch/internal/usage"
)

func TestForSuggestsFuzzyAfterRepeatedNoMatches(t *testing.T) {
	s := usage.Stats{SearchCount: 4, NoMatchCount: 3, ModeCounts: map[string]int{}}
	hs := For(s)
	assertHasKey(t, hs, "try-fuzzy")
}

func TestForSuggestsIndexBeforeAnyIndexing(t *testing.T) {
	s := usage.Stats{SearchCount: 6, IndexCount: 0, ModeCounts: map[string]int{}}
	hs := For(s)
	assertHasKey(t, hs, "build-index")
}

func TestForStaysQuietEarlyOn(t *testing.T) {
	s := usage.Stats{SearchCount: 1, ModeCounts: map[string]int{}}
	hs := For(s)
	assert.Empty(t, hs)
}

func assertHasKey(t *testing.T, hs []Hint, key string) {
	t.Helper()
	for _, h := range hs {
		if h.Key == key {
			return
		}
	}
	t.Fatalf("expected a hint with key %q, got %+v", key, hs)
}
