package retrieval

import (
	"strings"

	"handbook-rag/internal/domain"
)

// punctReplacer strips the punctuation set used during keyword extraction.
var punctReplacer = strings.NewReplacer(
	".", "", ",", "", "/", "", "#", "", "!", "", "$", "", "%", "",
	"^", "", "&", "", "*", "", ";", "", ":", "", "{", "", "}", "",
	"=", "", "-", "", "_", "", "`", "", "~", "", "(", "", ")", "",
)

// ExtractKeywords tokenizes free text into weighted domain keywords.
//
// The text is lowercased, stripped of punctuation and split on whitespace;
// tokens of three characters or fewer are dropped. Contiguous 2- and 3-word
// phrases are added when at least one constituent token is in the medical
// vocabulary. The result is deduplicated preserving first-seen order, which
// keeps multi-word phrase construction deterministic.
//
// Never fails: empty or all-short input yields an empty slice.
func ExtractKeywords(text string) []string {
	clean := punctReplacer.Replace(strings.ToLower(text))

	var words []string
	for _, token := range strings.Fields(clean) {
		if len(token) > 3 {
			words = append(words, token)
		}
	}

	var phrases []string
	for i := 0; i+1 < len(words); i++ {
		two := words[i] + " " + words[i+1]
		if domain.IsMedicalTerm(words[i]) || domain.IsMedicalTerm(words[i+1]) {
			phrases = append(phrases, two)
		}
		if i+2 < len(words) {
			if domain.IsMedicalTerm(words[i]) || domain.IsMedicalTerm(words[i+1]) || domain.IsMedicalTerm(words[i+2]) {
				phrases = append(phrases, two+" "+words[i+2])
			}
		}
	}

	seen := make(map[string]struct{}, len(words)+len(phrases))
	var keywords []string
	for _, term := range append(words, phrases...) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		keywords = append(keywords, term)
	}
	return keywords
}

// FilterMedicalKeywords keeps keywords that belong to the medical vocabulary,
// exactly or by containment.
func FilterMedicalKeywords(keywords []string) []string {
	var medical []string
	for _, k := range keywords {
		if domain.IsMedicalKeyword(k) {
			medical = append(medical, k)
		}
	}
	return medical
}
