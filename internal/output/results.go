package output

import (
	"strings"

	"github.com/amanmcp/semisearch/internal/merge"
	"github.com/amanmcp/semisearch/internal/strategy"
)

// Results renders a merged result list the way a person wants to scan it:
// exact matches first, then files dense with hits, then the remaining
// single hits split into strong and weak. When the result set spans more
// than one detected language, each bucket is annotated with per-language
// headings.
func (w *Writer) Results(results []strategy.Result, showContext bool) {
	if len(results) == 0 {
		return
	}

	groups := merge.Group(results)

	if len(groups.Exact) > 0 {
		w.Status("", "Exact matches:")
		w.printHits(groups.Exact, showContext)
	}

	for _, fg := range groups.ByFile {
		w.Statusf("", "%s (%d matches):", fg.FilePath, len(fg.Hits))
		w.printHits(fg.Hits, showContext)
	}

	if len(groups.Good) > 0 {
		if len(groups.Exact) > 0 || len(groups.ByFile) > 0 {
			w.Status("", "Strong matches:")
		}
		w.printLanguageAware(groups.Good, showContext)
	}

	if len(groups.Other) > 0 {
		if len(groups.Exact) > 0 || len(groups.ByFile) > 0 || len(groups.Good) > 0 {
			w.Status("", "Other matches:")
		}
		w.printLanguageAware(groups.Other, showContext)
	}
}

// printLanguageAware adds per-language headings when the hits span more
// than one detected language; otherwise it prints them flat.
func (w *Writer) printLanguageAware(hits []strategy.Result, showContext bool) {
	langGroups := merge.GroupByLanguage(hits)
	if langGroups == nil {
		w.printHits(hits, showContext)
		return
	}
	for _, lg := range langGroups {
		label := lg.Language
		if label == "" {
			label = "other"
		}
		w.Statusf("", "  [%s]", label)
		w.printHits(lg.Hits, showContext)
	}
}

func (w *Writer) printHits(hits []strategy.Result, showContext bool) {
	for _, r := range hits {
		w.Statusf("", "%s:%d: %s  (%.2f, %s)",
			r.FilePath, r.Line, strings.TrimSpace(r.Content), r.Score, r.MatchKind)
		if showContext {
			if r.Before != "" {
				w.Statusf("", "  | %s", r.Before)
			}
			if r.After != "" {
				w.Statusf("", "  | %s", r.After)
			}
		}
	}
}

// FilesOnly prints each distinct matching file path once, in result order.
func (w *Writer) FilesOnly(results []strategy.Result) {
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		w.Status("", r.FilePath)
	}
}
