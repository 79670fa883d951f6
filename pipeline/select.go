package pipeline

import (
	"sort"
	"strings"

	"github.com/tsawler/scanlift/failure"
)

// Candidate is one profile's recognition result after cleaning and scoring.
type Candidate struct {
	RawText      string
	CleanedText  string
	QualityScore float64
	ProfileName  string
	// Order is the declaration index of the profile that produced the candidate.
	Order int
	// EngineConfidence is the engine's mean word confidence, zero when unknown.
	EngineConfidence float64
}

// Select returns the highest scoring candidate. Equal scores are resolved in
// favour of the lower Order. The input slice is not modified.
//
// Select fails with failure.NoExtractableText when cands is empty or the
// winning candidate's cleaned text is blank.
func Select(cands []Candidate) (Candidate, error) {
	if len(cands) == 0 {
		return Candidate{}, failure.New(failure.NoExtractableText, "no recognition profile produced text", nil)
	}

	ranked := Rank(cands)
	best := ranked[0]
	if strings.TrimSpace(best.CleanedText) == "" {
		return Candidate{}, failure.New(failure.NoExtractableText, "recognized text was empty after cleaning", nil)
	}
	return best, nil
}

// Rank returns a copy of cands sorted by QualityScore descending, then by
// Order ascending.
func Rank(cands []Candidate) []Candidate {
	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].QualityScore != ranked[j].QualityScore {
			return ranked[i].QualityScore > ranked[j].QualityScore
		}
		return ranked[i].Order < ranked[j].Order
	})
	return ranked
}
