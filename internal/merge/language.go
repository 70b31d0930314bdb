package merge

import (
	"sort"

	"github.com/amanmcp/semisearch/internal/strategy"
	"github.com/amanmcp/semisearch/internal/textproc"
)

// LanguageGroup clusters results whose content carries the same detected
// language hint.
type LanguageGroup struct {
	Language string // "" for content with no recognizable shape
	Hits     []strategy.Result
}

// GroupByLanguage partitions results by the language hint of their
// content. It returns nil unless at least two distinct languages are
// present, since a single-language result set gains nothing from the
// extra level of headings. Groups are ordered by hit count descending,
// the unhinted group last.
func GroupByLanguage(results []strategy.Result) []LanguageGroup {
	byLang := make(map[string][]strategy.Result)
	var order []string
	for _, r := range results {
		lang, _ := textproc.LanguageHint(r.Content)
		if _, ok := byLang[lang]; !ok {
			order = append(order, lang)
		}
		byLang[lang] = append(byLang[lang], r)
	}

	hinted := 0
	for lang := range byLang {
		if lang != "" {
			hinted++
		}
	}
	if hinted < 2 {
		return nil
	}

	groups := make([]LanguageGroup, 0, len(order))
	for _, lang := range order {
		groups = append(groups, LanguageGroup{Language: lang, Hits: byLang[lang]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if (groups[i].Language == "") != (groups[j].Language == "") {
			return groups[j].Language == ""
		}
		return len(groups[i].Hits) > len(groups[j].Hits)
	})
	return groups
}
