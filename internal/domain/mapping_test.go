package domain

import "testing"

func TestColumnMapping_IsValid(t *testing.T) {
	no := false
	yes := true
	tests := []struct {
		name    string
		mapping ColumnMapping
		want    bool
	}{
		{"both columns set", ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty"}, true},
		{"missing target", ColumnMapping{SourceColumn: "Qty"}, false},
		{"missing source", ColumnMapping{TargetColumn: "Quantity"}, false},
		{"whitespace only", ColumnMapping{TargetColumn: "  ", SourceColumn: "Qty"}, false},
		{"explicit invalid", ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty", Valid: &no}, false},
		{"explicit valid", ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty", Valid: &yes}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mapping.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnMapping_MatchesSourceHeader(t *testing.T) {
	m := ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty"}

	tests := []struct {
		header string
		want   bool
	}{
		{"Qty", true},
		{"qty", true},
		{"  QTY  ", true},
		{"Quantity", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := m.MatchesSourceHeader(tt.header); got != tt.want {
			t.Errorf("MatchesSourceHeader(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestColumnMapping_Equivalent(t *testing.T) {
	a := ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty"}
	b := ColumnMapping{TargetColumn: "QUANTITY", SourceColumn: "qty", Context: "different context"}
	c := ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Count"}

	if !a.Equivalent(b) {
		t.Error("expected case-insensitive equivalence")
	}
	if a.Equivalent(c) {
		t.Error("different source columns must not be equivalent")
	}
}

func TestColumnMapping_PromptLine(t *testing.T) {
	plain := ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty"}
	if got := plain.PromptLine(); got != `"Qty" → "Quantity"` {
		t.Errorf("PromptLine() = %s", got)
	}

	withCtx := ColumnMapping{TargetColumn: "Quantity", SourceColumn: "Qty", Context: "order lines"}
	if got := withCtx.PromptLine(); got != `"Qty" → "Quantity" (order lines)` {
		t.Errorf("PromptLine() = %s", got)
	}
}
