package query

import "testing"

func TestClassifyIsPure(t *testing.T) {
	queries := []string{"getUserById", "how does authentication work", "foo", ""}
	for _, q := range queries {
		a1 := Classify(q)
		a2 := Classify(q)
		if a1 != a2 {
			t.Fatalf("Classify(%q) not pure: %+v vs %+v", q, a1, a2)
		}
	}
}

func TestClassifyDecisionThresholds(t *testing.T) {
	cases := []struct {
		name string
		q    string
		want Decision
	}{
		{"short identifier", "x", KeywordOnly},
		{"natural language question", "how does the query analyzer decide which strategy to run", SemanticOnly},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.q)
			if got.Decision != c.want {
				t.Fatalf("Classify(%q) decision = %v (score %.3f), want %v", c.q, got.Decision, got.Score, c.want)
			}
		})
	}
}

func TestClassifyScoreBounds(t *testing.T) {
	for _, q := range []string{"", "a", "the quick brown fox jumps over lazy dog machine learning explain concept"} {
		a := Classify(q)
		if a.Score < 0 || a.Score > 1 {
			t.Fatalf("score out of bounds for %q: %v", q, a.Score)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Fatalf("confidence out of bounds for %q: %v", q, a.Confidence)
		}
	}
}

func TestClassifyWithHintPerturbsOnlyConfidence(t *testing.T) {
	q := "how does authentication work"
	base := Classify(q)

	for _, hint := range []ProjectHint{HintNone, HintCodeHeavy, HintDocsHeavy, HintConfigHeavy} {
		got := ClassifyWithHint(q, hint)
		if got.Score != base.Score || got.Decision != base.Decision {
			t.Fatalf("hint %q changed score or decision: %+v vs %+v", hint, got, base)
		}
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Fatalf("hint %q pushed confidence out of bounds: %v", hint, got.Confidence)
		}
	}

	docs := ClassifyWithHint(q, HintDocsHeavy)
	code := ClassifyWithHint(q, HintCodeHeavy)
	if docs.Confidence < code.Confidence {
		t.Fatalf("docs hint should not lower confidence below code hint: %v vs %v", docs.Confidence, code.Confidence)
	}
}

func TestLooksLikeRegex(t *testing.T) {
	if !LooksLikeRegex(`let \w+ =`) {
		t.Fatal("expected regex-looking query to be detected")
	}
	if LooksLikeRegex("plain english query") {
		t.Fatal("did not expect a plain query to look like regex")
	}
}
