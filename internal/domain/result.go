package domain

// ColumnMatchingResult is the outcome of matching one source header against
// the target schema. Results are created once by the matcher and never
// mutated afterwards.
type ColumnMatchingResult struct {
	SourceHeader         string  `json:"sourceHeader"`
	MatchedTargetHeader  string  `json:"matchedTargetHeader"`
	ConfidencePercentage float64 `json:"confidencePercentage"`
	Reasoning            string  `json:"reasoning"`
	UsedExistingMapping  bool    `json:"usedExistingMapping"`

	// Valid is the same tri-state override as on ColumnMapping: nil/true
	// mean valid, explicit false forces invalid.
	Valid *bool `json:"valid,omitempty"`
}

// IsValid reports whether the result is complete: non-empty source and
// matched headers, non-empty reasoning, confidence within 0–100.
func (r ColumnMatchingResult) IsValid() bool {
	if r.Valid != nil && !*r.Valid {
		return false
	}
	return trimmed(r.SourceHeader) &&
		trimmed(r.MatchedTargetHeader) &&
		trimmed(r.Reasoning) &&
		r.ConfidencePercentage >= 0 && r.ConfidencePercentage <= 100
}

func trimmed(s string) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}
