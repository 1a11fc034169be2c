package domain

// Document is a handbook passage as stored in the vector index. The index
// owns documents; the retrieval pipeline never mutates them.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// ScoredCandidate is a ranked passage produced for a single retrieval call.
// Component scores are recorded alongside the combined score so callers and
// tests can verify the blend.
type ScoredCandidate struct {
	ID               string
	Text             string
	VectorScore      float64
	KeywordScore     float64
	MedicalTermBoost float64
	LengthScore      float64
	CombinedScore    float64
}
