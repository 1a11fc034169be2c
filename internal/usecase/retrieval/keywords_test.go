package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_DropsShortTokensAndPunctuation(t *testing.T) {
	keywords := ExtractKeywords("What is the flu? I feel bad.")

	// "What", "the", "flu", "feel", "bad" are all <= 3 chars after cleanup
	// except "what" and "feel".
	assert.Contains(t, keywords, "what")
	assert.Contains(t, keywords, "feel")
	assert.NotContains(t, keywords, "flu")
	assert.NotContains(t, keywords, "is")
	assert.NotContains(t, keywords, "bad")
}

func TestExtractKeywords_BuildsPhrasesOnMedicalVocabulary(t *testing.T) {
	keywords := ExtractKeywords("chronic diabetes management")

	assert.Contains(t, keywords, "chronic")
	assert.Contains(t, keywords, "diabetes")
	assert.Contains(t, keywords, "management")
	// Two-word phrases require a medical constituent.
	assert.Contains(t, keywords, "chronic diabetes")
	assert.Contains(t, keywords, "diabetes management")
	// Three-word phrase too.
	assert.Contains(t, keywords, "chronic diabetes management")
}

func TestExtractKeywords_NoPhrasesWithoutMedicalTerms(t *testing.T) {
	keywords := ExtractKeywords("please explain everything carefully")

	for _, k := range keywords {
		assert.NotContains(t, k, " ", "no phrases expected for non-medical text: %q", k)
	}
}

func TestExtractKeywords_DeduplicatesPreservingOrder(t *testing.T) {
	keywords := ExtractKeywords("diabetes diabetes diabetes symptoms")

	count := 0
	for _, k := range keywords {
		if k == "diabetes" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "diabetes", keywords[0], "first-seen order must be preserved")
}

func TestExtractKeywords_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("a an of by"))
}

func TestFilterMedicalKeywords(t *testing.T) {
	keywords := []string{"diabetes", "weather", "cardiac arrest", "holiday"}

	medical := FilterMedicalKeywords(keywords)

	assert.Contains(t, medical, "diabetes")
	assert.Contains(t, medical, "cardiac arrest")
	assert.NotContains(t, medical, "weather")
	assert.NotContains(t, medical, "holiday")
}
