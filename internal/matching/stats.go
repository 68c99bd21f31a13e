package matching

import "colmatch/internal/domain"

// Stats summarizes one matching run for the caller.
type Stats struct {
	MatchedHeadersCount            int     `json:"matchedHeadersCount"`
	AverageConfidence              float64 `json:"averageConfidence"`
	ExistingMappingsUsedCount      int     `json:"existingMappingsUsedCount"`
	ExistingMappingUtilizationRate float64 `json:"existingMappingUtilizationRate"`
}

// Aggregate computes run statistics over the final result sequence.
func Aggregate(results []domain.ColumnMatchingResult) Stats {
	stats := Stats{MatchedHeadersCount: len(results)}
	if len(results) == 0 {
		return stats
	}

	var total float64
	for _, r := range results {
		total += r.ConfidencePercentage
		if r.UsedExistingMapping {
			stats.ExistingMappingsUsedCount++
		}
	}

	stats.AverageConfidence = total / float64(len(results))
	stats.ExistingMappingUtilizationRate = float64(stats.ExistingMappingsUsedCount) / float64(len(results)) * 100
	return stats
}
