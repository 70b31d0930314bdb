// Package textproc turns raw file bytes into chunks and tokens: the shared
// normalization step that the indexer, the TF-IDF embedder, and every
// ranking strategy build on.
package textproc

import (
	"strings"
	"unicode"
)

// MinCleanLineBytes is the minimum length, after trimming, a line must have
// to become its own chunk.
const MinCleanLineBytes = 10

// Chunk is a unit of stored/indexed text: by default one non-trivial source
// line with its byte offsets into the original content.
type Chunk struct {
	Line    int    // 1-based line number of the chunk's first line
	Start   int    // byte offset into content, inclusive
	End     int    // byte offset into content, exclusive
	Content string // original text, untrimmed, with CRLF normalized to LF
}

// Process splits content into line-based chunks, dropping blank or
// too-short lines. CRLF is normalized to LF before chunking; tabs count as
// a single space for the length check but are preserved in Content.
func Process(content string) []Chunk {
	content = normalizeNewlines(content)
	return chunkLines(content)
}

// ProcessWindowed splits content into overlapping windows of size lines,
// each advancing by size-overlap lines. overlap must be < size.
func ProcessWindowed(content string, size, overlap int) []Chunk {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	content = normalizeNewlines(content)

	lines, offsets := splitLinesWithOffsets(content)
	step := size - overlap
	var chunks []Chunk
	for start := 0; start < len(lines); start += step {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		cleaned := cleanForLength(text)
		if len(cleaned) < MinCleanLineBytes {
			if end >= len(lines) {
				break
			}
			continue
		}
		chunks = append(chunks, Chunk{
			Line:    start + 1,
			Start:   offsets[start],
			End:     offsets[end-1] + len(lines[end-1]),
			Content: text,
		})
		if end >= len(lines) {
			break
		}
	}
	return chunks
}

func chunkLines(content string) []Chunk {
	lines, offsets := splitLinesWithOffsets(content)
	var chunks []Chunk
	for i, line := range lines {
		cleaned := cleanForLength(line)
		if len(cleaned) < MinCleanLineBytes {
			continue
		}
		chunks = append(chunks, Chunk{
			Line:    i + 1,
			Start:   offsets[i],
			End:     offsets[i] + len(line),
			Content: line,
		})
	}
	return chunks
}

// splitLinesWithOffsets splits content on "\n" and returns each line's
// alongside its starting byte offset in content (the newline is excluded
// from both the line and the offset range).
func splitLinesWithOffsets(content string) ([]string, []int) {
	var lines []string
	var offsets []int
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			offsets = append(offsets, start)
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
		offsets = append(offsets, start)
	}
	return lines, offsets
}

// cleanForLength trims whitespace and collapses tabs to single spaces,
// purely to evaluate MinCleanLineBytes; it is never what gets stored.
func cleanForLength(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, "\t", " ")
	return line
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// stopWords is the fixed English function-word set dropped during
// tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "to": true, "of": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "by": true, "from": true, "as": true, "it": true,
	"this": true, "that": true, "these": true, "those": true, "into": true,
	"about": true, "than": true, "then": true, "so": true, "not": true,
	"no": true, "if": true, "do": true, "does": true, "did": true, "has": true,
	"have": true, "had": true, "will": true, "would": true, "can": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
}

// Tokenize lowercases text, splits on Unicode word boundaries, and drops
// single-character tokens, all-numeric tokens, and stop words.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len(tok) <= 1 {
			return
		}
		if isAllNumeric(tok) {
			return
		}
		if stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isAllNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LanguageHint heuristically tags content's likely programming language
// from shape-signatures alone. Used only as metadata.
func LanguageHint(content string) (string, bool) {
	lower := strings.ToLower(content)

	switch {
	case strings.Contains(content, "fn ") && strings.Contains(content, "let"):
		return "rust", true
	case strings.Contains(content, "def ") && strings.Contains(content, "import"):
		return "python", true
	case strings.Contains(content, "function") && strings.Contains(content, "var"):
		return "javascript", true
	case strings.Contains(content, "public class") && strings.Contains(content, "import java"):
		return "java", true
	case strings.Contains(content, "#include"):
		return "c", true
	case strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html"):
		return "html", true
	case strings.Contains(lower, "select") && strings.Contains(lower, "from"):
		return "sql", true
	}
	return "", false
}
