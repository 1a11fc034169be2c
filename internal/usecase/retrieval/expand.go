package retrieval

import "strings"

// ExpandedQuery is the deterministic expansion of a user query. Text carries
// the original query plus appended synonym and contextual vocabulary;
// Keywords are extracted from the original query.
type ExpandedQuery struct {
	Original string
	Text     string
	Keywords []string
}

type synonymEntry struct {
	term     string
	synonyms string
}

// synonymTable maps lay terms to clinical synonym clusters. Ordered: the
// synonym-expansion step is first-match-wins (see ExpandQuery).
var synonymTable = []synonymEntry{
	{"heart attack", "myocardial infarction cardiac arrest"},
	{"stroke", "cerebrovascular accident cva"},
	{"high blood pressure", "hypertension htn elevated bp"},
	{"kidney stones", "nephrolithiasis renal calculi"},
	{"heart failure", "cardiac failure chf congestive cardiomyopathy"},
	{"blood sugar", "glucose glycemia"},
	{"water pills", "diuretics"},
	{"blood thinner", "anticoagulant warfarin heparin"},
	{"pain killer", "analgesic painkiller nsaid"},
	{"inflammation", "inflammatory response swelling edema"},
	{"diabetes", "diabetes mellitus dm hyperglycemia"},
	{"cancer", "malignancy neoplasm carcinoma tumor"},
	{"asthma", "bronchial asthma reactive airway disease"},
	{"arthritis", "joint inflammation osteoarthritis rheumatoid"},
	{"alzheimer", "dementia neurocognitive disorder"},
	{"pneumonia", "lung infection pulmonary inflammation"},
	{"flu", "influenza viral infection"},
	{"depression", "major depressive disorder mood disorder"},
	{"anxiety", "anxiety disorder gad panic"},
	{"thyroid", "hypothyroidism hyperthyroidism tsh"},
}

// contextualTrigger appends category vocabulary when any trigger substring is
// present. Unlike synonym expansion, every trigger fires independently.
type contextualTrigger struct {
	cues  []string
	terms string
}

var contextualTriggers = []contextualTrigger{
	{[]string{"symptom", "sign", "feel"}, " clinical manifestation presentation"},
	{[]string{"treatment", "cure", "therapy"}, " management therapeutic intervention medication drug"},
	{[]string{"cause", "why", "reason"}, " etiology pathophysiology mechanism"},
	{[]string{"diagnosis", "test", "detect"}, " diagnostic evaluation laboratory imaging"},
}

// ExpandQuery augments a user query with clinical synonyms and contextual
// vocabulary before embedding. Deterministic, side-effect-free, no I/O.
//
// At most one synonym cluster is appended per query: the first table entry
// whose lay term occurs in the query wins, with each entry's synonym list
// also checked as a secondary trigger (the reverse direction appends the lay
// term plus the remaining synonyms). Contextual triggers are independent of
// the guard and of each other.
func ExpandQuery(query string) ExpandedQuery {
	lower := strings.ToLower(query)

	var sb strings.Builder
	sb.WriteString(query)

	synonymsAdded := false
	for _, entry := range synonymTable {
		if synonymsAdded {
			break
		}
		if strings.Contains(lower, entry.term) {
			sb.WriteString(" ")
			sb.WriteString(entry.synonyms)
			synonymsAdded = true
			continue
		}
		for _, syn := range strings.Fields(entry.synonyms) {
			if strings.Contains(lower, syn) {
				sb.WriteString(" ")
				sb.WriteString(entry.term)
				sb.WriteString(" ")
				sb.WriteString(strings.Replace(entry.synonyms, syn, "", 1))
				synonymsAdded = true
				break
			}
		}
	}

	for _, trigger := range contextualTriggers {
		for _, cue := range trigger.cues {
			if strings.Contains(lower, cue) {
				sb.WriteString(trigger.terms)
				break
			}
		}
	}

	return ExpandedQuery{
		Original: query,
		Text:     sb.String(),
		Keywords: ExtractKeywords(query),
	}
}
