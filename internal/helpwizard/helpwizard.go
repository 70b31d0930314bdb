// Package helpwizard implements the `help-me` command: a short,
// question-driven flow that recommends a search mode and flag set instead
// of requiring a user to already know the CLI surface.
package helpwizard

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Recommendation is the wizard's output: a mode name plus the flags a
// user should pass to reproduce it directly next time.
type Recommendation struct {
	Mode        string
	Flags       []string
	Explanation string
}

// Answers captures the wizard's four questions. A zero-value Answers
// (all false/empty) routes to auto mode.
type Answers struct {
	KnowsExactText bool
	MightHaveTypos bool
	WantsPattern   bool
	DescribingIdea bool
}

// Recommend maps a filled-out Answers to a Recommendation. Pure, so the
// interactive Run and any test can both exercise it directly.
func Recommend(a Answers) Recommendation {
	switch {
	case a.WantsPattern:
		return Recommendation{
			Mode:        "regex",
			Flags:       []string{"--regex"},
			Explanation: "You're describing a pattern, not literal text, so regex matching fits best.",
		}
	case a.MightHaveTypos:
		return Recommendation{
			Mode:        "fuzzy",
			Flags:       []string{"--fuzzy", "--typo-tolerance 2"},
			Explanation: "Fuzzy matching tolerates misspellings and partial words.",
		}
	case a.DescribingIdea && !a.KnowsExactText:
		return Recommendation{
			Mode:        "semantic",
			Flags:       []string{"--advanced", "--mode semantic"},
			Explanation: "You're describing a concept rather than exact wording, so semantic search should surface related code even without matching words.",
		}
	case a.KnowsExactText:
		return Recommendation{
			Mode:        "keyword",
			Flags:       []string{"--exact"},
			Explanation: "You know the exact text, so exact matching surfaces only perfect hits.",
		}
	default:
		return Recommendation{
			Mode:        "auto",
			Flags:       nil,
			Explanation: "Not sure yet? Auto mode classifies the query and picks a strategy for you.",
		}
	}
}

// Run drives the four-question flow over in/out, returning the final
// Recommendation. Any unrecognized answer is treated as "no".
func Run(in io.Reader, out io.Writer) (Recommendation, error) {
	reader := bufio.NewReader(in)
	ask := func(question string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", question)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		line = strings.ToLower(strings.TrimSpace(line))
		return line == "y" || line == "yes", nil
	}

	var a Answers
	var err error
	if a.KnowsExactText, err = ask("Do you know the exact text you're looking for?"); err != nil {
		return Recommendation{}, err
	}
	if a.MightHaveTypos, err = ask("Might your query contain typos or partial words?"); err != nil {
		return Recommendation{}, err
	}
	if a.WantsPattern, err = ask("Are you matching a pattern (wildcards, character classes)?"); err != nil {
		return Recommendation{}, err
	}
	if a.DescribingIdea, err = ask("Are you describing an idea rather than exact code?"); err != nil {
		return Recommendation{}, err
	}

	rec := Recommend(a)
	fmt.Fprintf(out, "\nRecommended: %s\n%s\n", rec.Mode, rec.Explanation)
	if len(rec.Flags) > 0 {
		fmt.Fprintf(out, "Try: semisearch search <query> %s\n", strings.Join(rec.Flags, " "))
	}
	return rec, nil
}
