package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amanmcp/semisearch/internal/strategy"
)

func TestResults_ExactGroupLeads(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results([]strategy.Result{
		{FilePath: "a.txt", Line: 1, Content: "exact hit content", Score: 1.0, MatchKind: strategy.MatchExact},
		{FilePath: "b.txt", Line: 3, Content: "approximate hit content", Score: 0.5, MatchKind: strategy.MatchFuzzy},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "Exact matches:")
	assert.Contains(t, out, "a.txt:1")
	assert.Contains(t, out, "b.txt:3")
	assert.Less(t, indexIn(out, "a.txt:1"), indexIn(out, "b.txt:3"))
}

func TestResults_DenseFileFormsGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results([]strategy.Result{
		{FilePath: "busy.go", Line: 5, Content: "first hit in busy file", Score: 0.6, MatchKind: strategy.MatchKeyword},
		{FilePath: "busy.go", Line: 2, Content: "second hit in busy file", Score: 0.6, MatchKind: strategy.MatchKeyword},
		{FilePath: "busy.go", Line: 9, Content: "third hit in busy file", Score: 0.6, MatchKind: strategy.MatchKeyword},
	}, false)

	assert.Contains(t, buf.String(), "busy.go (3 matches):")
}

func TestResults_ContextLinesShown(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Results([]strategy.Result{
		{FilePath: "a.txt", Line: 2, Content: "the matching line", Score: 0.9,
			MatchKind: strategy.MatchKeyword, Before: "line before", After: "line after"},
	}, true)

	out := buf.String()
	assert.Contains(t, out, "line before")
	assert.Contains(t, out, "line after")
}

func TestResults_EmptyPrintsNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Results(nil, false)
	assert.Empty(t, buf.String())
}

func TestFilesOnly_DeduplicatesPaths(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.FilesOnly([]strategy.Result{
		{FilePath: "a.txt", Line: 1},
		{FilePath: "a.txt", Line: 2},
		{FilePath: "b.txt", Line: 1},
	})

	out := buf.String()
	assert.Equal(t, 1, countIn(out, "a.txt"))
	assert.Equal(t, 1, countIn(out, "b.txt"))
}

func indexIn(s, sub string) int {
	return bytes.Index([]byte(s), []byte(sub))
}

func countIn(s, sub string) int {
	return bytes.Count([]byte(s), []byte(sub))
}
