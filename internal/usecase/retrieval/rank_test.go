package retrieval

import (
	"strings"
	"testing"

	"handbook-rag/internal/domain"

	"github.com/stretchr/testify/assert"
)

func match(id, text string, score float64) domain.IndexMatch {
	return domain.IndexMatch{
		ID:       id,
		Score:    score,
		Metadata: map[string]string{"text": text},
	}
}

func TestDefaultRankWeights_SumToOne(t *testing.T) {
	sum := DefaultRankWeights.Vector +
		DefaultRankWeights.Keyword +
		DefaultRankWeights.MedicalBoost +
		DefaultRankWeights.Length
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRank_ZeroKeywordsScoresVectorAndLengthOnly(t *testing.T) {
	matches := []domain.IndexMatch{
		match("a", "short snippet", 0.9),
	}

	ranked := Rank(matches, nil, nil, 5, DefaultRankWeights)

	assert.Len(t, ranked, 1)
	c := ranked[0]
	assert.Equal(t, 0.0, c.KeywordScore)
	assert.Equal(t, 0.0, c.MedicalTermBoost)
	assert.Equal(t, 1.0, c.LengthScore, "short texts get the full length prior")
	assert.InDelta(t, 0.59, c.CombinedScore, 1e-9)
}

func TestRank_KeywordOverlapAndMedicalBoost(t *testing.T) {
	matches := []domain.IndexMatch{
		match("a", "Diabetes is a chronic condition affecting blood sugar.", 0.5),
	}
	keywords := []string{"diabetes", "blood", "unrelated"}
	medical := []string{"diabetes"}

	ranked := Rank(matches, keywords, medical, 5, DefaultRankWeights)

	assert.Len(t, ranked, 1)
	c := ranked[0]
	assert.InDelta(t, 2.0/3.0, c.KeywordScore, 1e-9)
	assert.Equal(t, 0.2, c.MedicalTermBoost)
}

func TestRank_SkipsEmptyText(t *testing.T) {
	matches := []domain.IndexMatch{
		{ID: "no-meta", Score: 0.9},
		match("ok", "diabetes passage", 0.5),
	}

	ranked := Rank(matches, []string{"diabetes"}, []string{"diabetes"}, 5, DefaultRankWeights)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "ok", ranked[0].ID)
}

func TestRank_DropsZeroCombined(t *testing.T) {
	weights := RankWeights{Vector: 1.0} // isolate the vector term
	matches := []domain.IndexMatch{
		match("zero", "irrelevant text", 0),
		match("hit", "relevant text", 0.4),
	}

	ranked := Rank(matches, nil, nil, 5, weights)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "hit", ranked[0].ID)
}

func TestRank_SortsDescendingAndTruncates(t *testing.T) {
	matches := []domain.IndexMatch{
		match("low", "some text padding out the passage", 0.1),
		match("high", "some text padding out the passage", 0.9),
		match("mid", "some text padding out the passage", 0.5),
	}

	ranked := Rank(matches, nil, nil, 2, DefaultRankWeights)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].ID)
	assert.Equal(t, "mid", ranked[1].ID)
}

func TestRank_StableOrderOnTies(t *testing.T) {
	matches := []domain.IndexMatch{
		match("first", "identical passage text", 0.5),
		match("second", "identical passage text", 0.5),
	}

	ranked := Rank(matches, nil, nil, 5, DefaultRankWeights)

	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
}

func TestRank_LengthPriorDecaysForLongPassages(t *testing.T) {
	long := strings.Repeat("x", 2000)
	matches := []domain.IndexMatch{match("long", long, 0.5)}

	ranked := Rank(matches, nil, nil, 5, DefaultRankWeights)

	assert.Len(t, ranked, 1)
	assert.InDelta(t, 0.5, ranked[0].LengthScore, 1e-9, "1000/2000")
}

func TestRankKeywordOnly_RequiresKeywordHit(t *testing.T) {
	matches := []domain.IndexMatch{
		match("hit", "Diabetes symptoms include thirst.", 0),
		match("miss", "Totally unrelated passage.", 0),
	}

	ranked := RankKeywordOnly(matches, []string{"diabetes"}, 5)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "hit", ranked[0].ID)
}

func TestRankKeywordOnly_BoostOnVocabularyText(t *testing.T) {
	matches := []domain.IndexMatch{
		match("medical", "diabetes is a disease", 0),
		match("plain", "the word diabetes appears here with no other vocabulary", 0),
	}

	ranked := RankKeywordOnly(matches, []string{"diabetes"}, 5)

	assert.Len(t, ranked, 2)
	// Both contain the keyword; both contain "diabetes" which is itself a
	// vocabulary term, so both get the boost and scores tie.
	assert.Equal(t, ranked[0].CombinedScore, ranked[1].CombinedScore)
	assert.Equal(t, 0.2, ranked[0].MedicalTermBoost)
}

func TestRankKeywordOnly_Truncates(t *testing.T) {
	var matches []domain.IndexMatch
	for i := 0; i < 10; i++ {
		matches = append(matches, match("id", "diabetes passage", 0))
	}

	ranked := RankKeywordOnly(matches, []string{"diabetes"}, 3)

	assert.Len(t, ranked, 3)
}
