package query

// djb2 is the 32-bit token hash used for table lookups: ((h<<5)+h)+b, the
// classic Bernstein hash. Used to key every pre-baked lookup table below so
// the tables themselves never need to store strings.
func djb2(s string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) + uint32(s[i])
	}
	return h
}

// hashPair hashes a space-joined bigram the same way a single token is
// hashed, so the bigram-coherence table shares djb2's keying scheme.
func hashPair(a, b string) uint32 {
	return djb2(a + " " + b)
}

// semanticWeights maps a token's djb2 hash to a 0..1 "how semantic is
// this word" weight. Implementation-defined: the exact
// contents are not prescribed, only that unknown tokens fall back to
// oovScore. Skewed toward natural-language and conceptual vocabulary
// scoring high, and short technical/code tokens scoring low.
var semanticWeights = buildWeightTable(map[string]float64{
	"how": 0.85, "what": 0.8, "why": 0.85, "when": 0.7, "where": 0.7,
	"which": 0.65, "who": 0.6, "does": 0.6, "can": 0.5, "should": 0.6,
	"would": 0.55, "explain": 0.9, "describe": 0.85, "understand": 0.85,
	"works": 0.7, "working": 0.7, "meaning": 0.8, "concept": 0.85,
	"purpose": 0.8, "reason": 0.75, "behavior": 0.7, "logic": 0.7,
	"algorithm": 0.75, "implementation": 0.7, "architecture": 0.75,
	"design": 0.7, "pattern": 0.6, "approach": 0.7, "strategy": 0.65,
	"handle": 0.55, "handles": 0.55, "handling": 0.55, "process": 0.55,
	"flow": 0.6, "model": 0.55, "system": 0.55, "component": 0.5,
	"module": 0.45, "function": 0.35, "method": 0.35, "class": 0.3,
	"variable": 0.3, "error": 0.45, "bug": 0.55, "issue": 0.55,
	"problem": 0.6, "fix": 0.45, "test": 0.3, "config": 0.25,
	"file": 0.2, "path": 0.2, "line": 0.2, "string": 0.2, "value": 0.3,
	"data": 0.35, "index": 0.25, "query": 0.35, "search": 0.4,
	"result": 0.35, "score": 0.3, "vector": 0.35, "token": 0.25,
	"chunk": 0.25, "store": 0.25, "cache": 0.25,
})

// bigramPair is one row of the coherence table: how naturally two tokens
// co-occur in English technical writing.
type bigramPair struct {
	a, b  string
	score float64
}

// bigramCoherence maps a hashed (token,token) pair to its coherence score;
// unknown pairs default to 0.3 (handled in the analyzer, not here).
var bigramCoherence = buildPairTable([]bigramPair{
	{"machine", "learning", 0.9},
	{"how", "does", 0.85},
	{"how", "to", 0.8},
	{"what", "is", 0.8},
	{"error", "handling", 0.8},
	{"search", "algorithm", 0.75},
	{"query", "analyzer", 0.7},
	{"vector", "search", 0.75},
	{"full", "text", 0.7},
	{"edit", "distance", 0.75},
	{"natural", "language", 0.8},
	{"does", "not", 0.6},
})

func buildWeightTable(words map[string]float64) map[uint32]float64 {
	t := make(map[uint32]float64, len(words))
	for w, score := range words {
		t[djb2(w)] = score
	}
	return t
}

func buildPairTable(rows []bigramPair) map[uint32]float64 {
	t := make(map[uint32]float64, len(rows))
	for _, row := range rows {
		t[hashPair(row.a, row.b)] = row.score
	}
	return t
}

// trigramLogProb is a small, hand-curated table of common English
// character trigrams mapped to quantized log-probabilities. Unseen
// trigrams score -100. This is deliberately compact: enough
// common trigrams to distinguish ordinary English queries from code-shaped
// or random-looking ones, not a full language model.
var trigramLogProb = map[string]float64{
	"the": -1.2, "ing": -1.5, "and": -1.8, "ion": -1.9, "tio": -2.0,
	"ent": -2.1, "for": -2.2, "thi": -2.3, "is ": -2.0, "er ": -2.1,
	"ati": -2.2, "ter": -2.3, "all": -2.5, "wha": -2.6, "how": -2.4,
	"hat": -2.5, "ere": -2.4, "her": -2.2, "ver": -2.3, "ear": -2.6,
	" th": -1.4, " wh": -2.5, "es ": -2.0, "ed ": -2.1, "ate": -2.4,
	"con": -2.3, "com": -2.4, "pro": -2.3, "and ": -1.9,
}

// perplexityFor returns the mean quantized log-probability across text's
// overlapping byte trigrams (unseen trigrams contribute -100), the raw
// input normalizedPerplexity turns into a normalized [0,1] axis.
func perplexityFor(text string) float64 {
	if len(text) < 3 {
		return -100
	}
	var sum float64
	n := 0
	for i := 0; i+3 <= len(text); i++ {
		tri := text[i : i+3]
		if lp, ok := trigramLogProb[tri]; ok {
			sum += lp
		} else {
			sum += -100
		}
		n++
	}
	if n == 0 {
		return -100
	}
	return sum / float64(n)
}
