// Package query implements the lightweight query classifier (C6): scoring
// a query's "semantic need" in [0,1] and projecting that score onto a
// routing decision the engine dispatches on.
package query

import (
	"strings"
	"unicode"

	"github.com/amanmcp/semisearch/internal/textproc"
)

// Decision is the routing verdict a Score projects to.
type Decision string

const (
	KeywordOnly  Decision = "keyword_only"
	Adaptive     Decision = "adaptive"
	SemanticOnly Decision = "semantic_only"
)

const (
	keywordOnlyCeiling = 0.45
	adaptiveCeiling    = 0.60
)

// Analysis is the result of classifying one query: its raw semantic-need
// score, the routing decision it projects to, and a confidence estimate.
type Analysis struct {
	Score      float64
	Decision   Decision
	Confidence float64
}

// fixed combination weights.
const (
	weightSemantic   = 0.5
	weightLength     = 0.2
	weightCoherence  = 0.1
	weightConcept    = 0.1
	weightQuestion   = 0.1
	weightPerplexity = -0.01
	baseBias         = 0.35
)

var questionWords = map[string]bool{
	"how": true, "what": true, "why": true, "when": true, "where": true,
	"which": true, "who": true, "does": true, "can": true, "should": true,
	"would": true,
}

// Classify is pure: calling it twice on the same query yields the same
// score, decision, and confidence.
func Classify(q string) Analysis {
	q = strings.TrimSpace(q)
	if q == "" {
		return Analysis{Score: baseBias, Decision: KeywordOnly}
	}

	tokens := textproc.Tokenize(q)

	semantic, foundFrac := semanticWeight(tokens)
	coherence := tokenCoherence(tokens)
	concept := conceptDensity(strings.Fields(q))
	length := lengthFactor(len(tokens))
	question := questionBoost(q)
	perplexity := normalizedPerplexity(q)

	score := baseBias +
		weightSemantic*semantic +
		weightLength*length +
		weightCoherence*coherence +
		weightConcept*concept +
		weightQuestion*question +
		weightPerplexity*perplexity
	score = clamp01(score)

	confidence := 0.7*foundFrac + 0.3*minF(float64(len(tokens))/10, 1)

	return Analysis{
		Score:      score,
		Decision:   decisionFor(score),
		Confidence: clamp01(confidence),
	}
}

func decisionFor(score float64) Decision {
	switch {
	case score < keywordOnlyCeiling:
		return KeywordOnly
	case score < adaptiveCeiling:
		return Adaptive
	default:
		return SemanticOnly
	}
}

// semanticWeight is the mean over tokens of the pre-baked semantic-weight
// table, falling back to oovScore for tokens the table doesn't cover. It
// also returns the fraction of tokens that WERE found, for Confidence.
func semanticWeight(tokens []string) (mean, foundFrac float64) {
	if len(tokens) == 0 {
		return 0, 0
	}
	var sum float64
	found := 0
	for _, t := range tokens {
		if w, ok := semanticWeights[djb2(t)]; ok {
			sum += w
			found++
		} else {
			sum += 0.3 + 0.7*oovScore(t)
		}
	}
	return sum / float64(len(tokens)), float64(found) / float64(len(tokens))
}

// oovScore heuristically scores an out-of-vocabulary token by suffix/
// prefix hints and capitalization, in [0,1].
func oovScore(token string) float64 {
	lower := strings.ToLower(token)
	score := 0.0

	suffixes := []string{"tion", "ment", "ology", "ity", "ness", "ance", "ence"}
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, suf) {
			score += 0.5
			break
		}
	}

	prefixes := []string{"un", "re", "inter", "over", "under"}
	for _, pre := range prefixes {
		if strings.HasPrefix(lower, pre) {
			score += 0.2
			break
		}
	}

	if len(token) > 0 && unicode.IsUpper(rune(token[0])) {
		score += 0.1
	}

	return clamp01(score)
}

// tokenCoherence is the mean of per-bigram coherence scores over
// consecutive token pairs, defaulting unknown pairs to 0.3.
func tokenCoherence(tokens []string) float64 {
	if len(tokens) < 2 {
		return 0.3
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(tokens); i++ {
		if s, ok := bigramCoherence[hashPair(tokens[i], tokens[i+1])]; ok {
			sum += s
		} else {
			sum += 0.3
		}
		n++
	}
	return sum / float64(n)
}

// conceptDensity averages the fraction of words starting uppercase with
// the fraction containing an internal uppercase letter (CamelCase).
func conceptDensity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	var initialUpper, internalUpper float64
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 {
			continue
		}
		if unicode.IsUpper(r[0]) {
			initialUpper++
		}
		for _, c := range r[1:] {
			if unicode.IsUpper(c) {
				internalUpper++
				break
			}
		}
	}
	n := float64(len(words))
	return (initialUpper/n + internalUpper/n) / 2
}

func lengthFactor(tokenCount int) float64 {
	switch tokenCount {
	case 0:
		return 0
	case 1:
		return 0
	case 2:
		return 0.2
	case 3:
		return 0.4
	case 4:
		return 0.5
	default:
		return 0.6
	}
}

func questionBoost(q string) float64 {
	lower := strings.ToLower(q)
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return 0
	}
	if questionWords[fields[0]] {
		return 0.3
	}
	return 0
}

// normalizedPerplexity maps the raw mean trigram log-probability onto a
// [0,1] axis where 0 is very English-like (low perplexity) and 1 is very
// unlike the trigram table's training text (lots of unseen trigrams,
// score near -100).
func normalizedPerplexity(text string) float64 {
	const floor, ceiling = -100.0, -1.2 // -100 = fully unseen, -1.2 = best-known trigram
	lp := perplexityFor(strings.ToLower(text))
	if lp >= ceiling {
		return 0
	}
	if lp <= floor {
		return 1
	}
	return (ceiling - lp) / (ceiling - floor)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// ProjectHint is advisory context about the kind of project a query runs
// against, derived from the target directory's detected project type. It
// may only perturb Confidence, never the score or the decision thresholds.
type ProjectHint string

const (
	// HintNone carries no project information.
	HintNone ProjectHint = ""
	// HintCodeHeavy marks a source-tree target, where queries skew toward
	// identifiers and the semantic-weight table covers fewer tokens.
	HintCodeHeavy ProjectHint = "code"
	// HintDocsHeavy marks a prose/documentation-heavy target, where
	// natural-language queries are the norm.
	HintDocsHeavy ProjectHint = "docs"
	// HintConfigHeavy marks a configuration-heavy target, where queries
	// tend to be literal keys and regex-shaped fragments.
	HintConfigHeavy ProjectHint = "config"
)

// hintConfidenceDelta is how far a project hint may move Confidence in
// either direction.
const hintConfidenceDelta = 0.1

// ClassifyWithHint classifies q, then nudges the confidence by the project
// hint: a docs-heavy target makes the analyzer's English-trained tables
// more trustworthy, a code- or config-heavy one less so. The score and
// decision are those of Classify, untouched.
func ClassifyWithHint(q string, hint ProjectHint) Analysis {
	a := Classify(q)
	switch hint {
	case HintDocsHeavy:
		a.Confidence = clamp01(a.Confidence + hintConfidenceDelta)
	case HintCodeHeavy, HintConfigHeavy:
		a.Confidence = clamp01(a.Confidence - hintConfidenceDelta)
	}
	return a
}

// regexLookingTokens are substrings that signal the
// SemanticOnly fallback's "looks like a regex" heuristic.
var regexLookingTokens = []string{`.*`, `\d`, `\w`, `\s`, `[`, `(`, `^`, `$`, `+`, `?`, `*`}

// LooksLikeRegex reports whether q contains regex metacharacters or an
// embedded "*", used by the SemanticOnly fallback to
// decide whether an empty vector result should stay empty (regex users
// should learn to request regex mode) or fall back to Fuzzy.
func LooksLikeRegex(q string) bool {
	for _, tok := range regexLookingTokens {
		if strings.Contains(q, tok) {
			return true
		}
	}
	return false
}
