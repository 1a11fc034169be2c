package retrieval

import (
	"math"
	"sort"
	"strings"

	"handbook-rag/internal/domain"
)

// RankWeights are the blend weights of the hybrid score. They sum to 1.0.
type RankWeights struct {
	Vector       float64
	Keyword      float64
	MedicalBoost float64
	Length       float64
}

// DefaultRankWeights is the production blend: vector similarity dominates,
// keyword overlap and the medical-term boost correct for generic embeddings,
// and a small length prior favors citation-friendly passages.
var DefaultRankWeights = RankWeights{
	Vector:       0.6,
	Keyword:      0.25,
	MedicalBoost: 0.10,
	Length:       0.05,
}

// medicalTermBoostValue is the flat bonus for any medical-keyword hit.
const medicalTermBoostValue = 0.2

// Rank scores index matches with the hybrid blend, drops zero-scored
// candidates, sorts descending (stable, so ties keep retrieval order) and
// truncates to topK.
func Rank(matches []domain.IndexMatch, keywords, medicalKeywords []string, topK int, weights RankWeights) []domain.ScoredCandidate {
	candidates := make([]domain.ScoredCandidate, 0, len(matches))

	for _, match := range matches {
		text := match.Metadata["text"]
		if text == "" {
			// Missing payload scores zero and is filtered, not an error.
			continue
		}
		lowerText := strings.ToLower(text)

		keywordScore := keywordOverlap(lowerText, keywords)

		boost := 0.0
		if len(keywords) > 0 && anyContained(lowerText, medicalKeywords) {
			boost = medicalTermBoostValue
		}

		lengthScore := math.Min(1, 1000/math.Max(300, float64(len(text))))

		combined := weights.Vector*match.Score +
			weights.Keyword*keywordScore +
			weights.MedicalBoost*boost +
			weights.Length*lengthScore
		if combined == 0 {
			continue
		}

		candidates = append(candidates, domain.ScoredCandidate{
			ID:               match.ID,
			Text:             text,
			VectorScore:      match.Score,
			KeywordScore:     keywordScore,
			MedicalTermBoost: boost,
			LengthScore:      lengthScore,
			CombinedScore:    combined,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// RankKeywordOnly scores matches for the fallback path, where no reliable
// vector score exists: candidates must contain at least one keyword, and the
// score is keyword overlap plus the medical boost when any vocabulary term
// appears in the text.
func RankKeywordOnly(matches []domain.IndexMatch, keywords []string, topK int) []domain.ScoredCandidate {
	candidates := make([]domain.ScoredCandidate, 0, len(matches))

	for _, match := range matches {
		text := match.Metadata["text"]
		if text == "" {
			continue
		}
		lowerText := strings.ToLower(text)
		if !anyContained(lowerText, keywords) {
			continue
		}

		keywordScore := keywordOverlap(lowerText, keywords)

		boost := 0.0
		if domain.ContainsMedicalTerm(lowerText) {
			boost = medicalTermBoostValue
		}

		candidates = append(candidates, domain.ScoredCandidate{
			ID:               match.ID,
			Text:             text,
			KeywordScore:     keywordScore,
			MedicalTermBoost: boost,
			CombinedScore:    keywordScore + boost,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// keywordOverlap is the fraction of keywords found in the text. Zero when
// keywords is empty, never NaN.
func keywordOverlap(lowerText string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, k := range keywords {
		if strings.Contains(lowerText, strings.ToLower(k)) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

func anyContained(lowerText string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lowerText, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
