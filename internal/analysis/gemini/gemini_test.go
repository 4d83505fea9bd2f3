package gemini

import (
	"encoding/json"
	"strings"
	"testing"

	"paydash/internal/core"
)

func TestCleanModelJSON(t *testing.T) {
	want := `{"summary":"ok"}`
	cases := []struct {
		name string
		in   string
	}{
		{"plain", `{"summary":"ok"}`},
		{"fenced", "```json\n{\"summary\":\"ok\"}\n```"},
		{"bare fence", "```\n{\"summary\":\"ok\"}\n```"},
		{"chatty", "Here is the analysis:\n{\"summary\":\"ok\"}\nHope this helps!"},
		{"padded", "  \n{\"summary\":\"ok\"}  \n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanModelJSON(tc.in); got != want {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestCleanModelJSONParsesIntoInsight(t *testing.T) {
	raw := "```json\n" + `{
		"summary": "Spending rose slightly.",
		"trends": [{"type": "increase", "category": "Shopping", "change": "+23%", "description": "More online orders"}],
		"recommendations": [{"title": "Set a cap", "description": "Limit shopping", "priority": "high"}],
		"budgetHealth": {"score": 72, "status": "Good", "description": "Well balanced"}
	}` + "\n```"

	var insight core.Insight
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &insight); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	insight.Month = "2024-01"
	if err := insight.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if insight.Trends[0].Type != core.TrendIncrease {
		t.Errorf("trend type: %q", insight.Trends[0].Type)
	}
}

func TestBuildPrompt(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Date: core.NewDate(2024, 1, 15), Merchant: "A", Amount: core.Money{Cents: 8999}, Category: "Shopping", Status: core.StatusCompleted},
		{ID: "2", Date: core.NewDate(2024, 1, 14), Merchant: "B", Amount: core.Money{Cents: 547}, Category: "Food & Dining", Status: core.StatusCompleted},
	}
	prompt, err := buildPrompt("2024-01", txs)
	if err != nil {
		t.Fatal(err)
	}
	for _, fragment := range []string{"2024-01", "95.46 across 2 transactions", "budgetHealth", "STRICT JSON"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}
