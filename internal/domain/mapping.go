// Package domain holds the data model for column-header matching: confirmed
// mappings, match results, and the provider/model configuration that travels
// with a matching run.
package domain

import (
	"fmt"
	"strings"
)

// ColumnMapping is a previously confirmed source→target column pairing.
// Confirmed mappings bypass the AI backend and double as few-shot examples
// in the matching prompt.
type ColumnMapping struct {
	TargetColumn string `json:"targetColumn" yaml:"target_column"`
	SourceColumn string `json:"sourceColumn" yaml:"source_column"`
	Context      string `json:"context,omitempty" yaml:"context,omitempty"`

	// Valid is a tri-state compatibility override: nil and true both mean
	// valid, an explicit false forces invalid. No known producer sets it
	// to false; it is kept for round-tripping external payloads.
	Valid *bool `json:"valid,omitempty" yaml:"valid,omitempty"`
}

// IsValid reports whether the mapping carries both column names after trimming.
func (m ColumnMapping) IsValid() bool {
	if m.Valid != nil && !*m.Valid {
		return false
	}
	return strings.TrimSpace(m.TargetColumn) != "" && strings.TrimSpace(m.SourceColumn) != ""
}

// MatchesSourceHeader reports whether this mapping covers the given header.
// Comparison is trimmed and case-insensitive.
func (m ColumnMapping) MatchesSourceHeader(header string) bool {
	if strings.TrimSpace(header) == "" || strings.TrimSpace(m.SourceColumn) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(m.SourceColumn), strings.TrimSpace(header))
}

// Equivalent reports whether two mappings describe the same pairing,
// ignoring case on both columns.
func (m ColumnMapping) Equivalent(other ColumnMapping) bool {
	return strings.EqualFold(m.TargetColumn, other.TargetColumn) &&
		strings.EqualFold(m.SourceColumn, other.SourceColumn)
}

// PromptLine renders the mapping as a few-shot example line for the prompt,
// e.g. `"Qty" → "Quantity" (order line items)`.
func (m ColumnMapping) PromptLine() string {
	line := fmt.Sprintf("%q → %q", m.SourceColumn, m.TargetColumn)
	if ctx := strings.TrimSpace(m.Context); ctx != "" {
		line += " (" + ctx + ")"
	}
	return line
}
