package google

import (
	"fmt"
	"testing"

	"paydash/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base gets prefix", "Summaries", 2024, "2024 Summaries"},
		{"already prefixed kept", "2023 Summaries", 2024, "2023 Summaries"},
		{"whitespace trimmed", "  Summaries  ", 2024, "2024 Summaries"},
		{"empty stays empty", "", 2024, ""},
		{"short name gets prefix", "S", 2024, "2024 S"},
		{"numeric non-year prefixed", "1234Summaries", 2024, "2024 1234Summaries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestSummaryRow(t *testing.T) {
	s := core.MonthSummary{
		Month:        "2024-01",
		Total:        core.Money{Cents: 9546},
		Transactions: 2,
		Categories: map[string]core.Money{
			"Groceries": {Cents: 8999},
			"Transport": {Cents: 547},
		},
	}

	row := summaryRow(s)
	if len(row) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(row))
	}
	if row[0] != "2024-01" {
		t.Errorf("month cell = %v", row[0])
	}
	if row[1] != 95.46 {
		t.Errorf("total cell = %v, want 95.46", row[1])
	}
	if row[2] != 2 {
		t.Errorf("count cell = %v", row[2])
	}
	if got := fmt.Sprint(row[3]); got != "Groceries=89.99; Transport=5.47" {
		t.Errorf("breakdown cell = %q", got)
	}
}

func TestSummaryRowEmptyMonth(t *testing.T) {
	s := core.MonthSummary{Month: "2024-02", Categories: map[string]core.Money{}}
	row := summaryRow(s)
	if got := fmt.Sprint(row[3]); got != "" {
		t.Errorf("expected empty breakdown, got %q", got)
	}
	if row[1] != 0.0 {
		t.Errorf("total cell = %v, want 0", row[1])
	}
}
