package helpwizard

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendPrefersPatternOverEverything(t *testing.T) {
	r := Recommend(Answers{WantsPattern: true, KnowsExactText: true})
	assert.Equal(t, "regex", r.Mode)
}

func TestRecommendFuzzyForTypos(t *testing.T) {
	r := Recommend(Answers{MightHaveTypos: true})
	assert.Equal(t, "fuzzy", r.Mode)
}

func TestRecommendSemanticForIdeas(t *testing.T) {
	r := Recommend(Answers{DescribingIdea: true})
	assert.Equal(t, "semantic", r.Mode)
}

func TestRecommendKeywordWhenExact(t *testing.T) {
	r := Recommend(Answers{KnowsExactText: true})
	assert.Equal(t, "keyword", r.Mode)
}

func TestRecommendDefaultsToAuto(t *testing.T) {
	r := Recommend(Answers{})
	assert.Equal(t, "auto", r.Mode)
}

func TestRunDrivesQuestionsAndRecommends(t *testing.T) {
	in := strings.NewReader("n\ny\nn\nn\n")
	var out bytes.Buffer

	r, err := Run(in, &out)
	require.NoError(t, err)
	assert.Equal(t, "fuzzy", r.Mode)
	assert.Contains(t, out.String(), "Recommended: fuzzy")
}
