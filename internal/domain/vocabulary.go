package domain

import "strings"

// MedicalTerms is the weighted clinical vocabulary. Keywords that match an
// entry (exactly or by containment) get preferential treatment during
// extraction and ranking, correcting for embedding models trained on general
// rather than clinical text.
var MedicalTerms = map[string]struct{}{
	"diagnosis": {}, "treatment": {}, "symptom": {}, "disease": {},
	"condition": {}, "syndrome": {}, "therapy": {}, "medication": {},
	"drug": {}, "dosage": {}, "prognosis": {}, "etiology": {},
	"pathology": {}, "anatomy": {}, "physiology": {}, "chronic": {},
	"acute": {}, "congenital": {}, "genetic": {}, "viral": {},
	"bacterial": {}, "infection": {}, "inflammation": {}, "cancer": {},
	"tumor": {}, "malignant": {}, "benign": {}, "carcinoma": {},
	"sarcoma": {}, "leukemia": {}, "diabetes": {}, "hypertension": {},
	"stroke": {}, "cardiac": {}, "respiratory": {}, "pulmonary": {},
	"renal": {}, "hepatic": {}, "neurological": {}, "gastrointestinal": {},
	"musculoskeletal": {}, "dermatological": {}, "hematological": {},
	"immunological": {}, "endocrine": {}, "metabolic": {},
}

// IsMedicalTerm reports whether the token is an exact vocabulary entry.
func IsMedicalTerm(token string) bool {
	_, ok := MedicalTerms[token]
	return ok
}

// IsMedicalKeyword reports whether the keyword is a vocabulary entry or
// contains one as a substring (multi-word phrases qualify through their
// constituent terms).
func IsMedicalKeyword(keyword string) bool {
	if IsMedicalTerm(keyword) {
		return true
	}
	for term := range MedicalTerms {
		if strings.Contains(keyword, term) {
			return true
		}
	}
	return false
}

// ContainsMedicalTerm reports whether any vocabulary entry occurs inside the
// lowercased text.
func ContainsMedicalTerm(lowerText string) bool {
	for term := range MedicalTerms {
		if strings.Contains(lowerText, term) {
			return true
		}
	}
	return false
}
