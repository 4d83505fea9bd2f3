package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:          NewDate(2024, 1, 15),
		Merchant:      "Amazon",
		Amount:        Money{Cents: 8999},
		Category:      "Shopping",
		Status:        StatusCompleted,
		PaymentMethod: "Credit Card",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"blank merchant", func(tx *Transaction) { tx.Merchant = "  " }, ErrEmptyMerchant},
		{"unknown status", func(tx *Transaction) { tx.Status = "refunded" }, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDateJSON(t *testing.T) {
	cases := []struct {
		in   string
		key  string
		ok   bool
	}{
		{`"2024-01-15"`, "2024-01", true},
		{`"2024-12-31T23:00:00Z"`, "2024-12", true},
		{`""`, "", false},
		{`"not-a-date"`, "", false},
	}
	for _, tc := range cases {
		var d Date
		err := json.Unmarshal([]byte(tc.in), &d)
		if tc.ok {
			if err != nil {
				t.Fatalf("%s: %v", tc.in, err)
			}
			if got := d.MonthKey(); got != tc.key {
				t.Errorf("%s: expected month key %q, got %q", tc.in, tc.key, got)
			}
		} else if err == nil {
			t.Errorf("%s: expected error", tc.in)
		}
	}

	d := NewDate(2024, 1, 15)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2024-01-15"` {
		t.Errorf("expected \"2024-01-15\", got %s", data)
	}
}

func TestInsightValidate(t *testing.T) {
	valid := Insight{
		Month:   "2024-01",
		Summary: "Spending was stable.",
		Trends: []Trend{
			{Type: TrendIncrease, Category: "Shopping", Change: "+23%"},
		},
		Recommendations: []Recommendation{
			{Title: "Set a budget", Priority: PriorityHigh},
		},
		BudgetHealth: BudgetHealth{Score: 72, Status: "Good"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid insight rejected: %v", err)
	}

	bad := valid
	bad.Month = "January 2024"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMonthKey) {
		t.Errorf("expected ErrInvalidMonthKey, got %v", err)
	}

	bad = valid
	bad.BudgetHealth.Score = 101
	if err := bad.Validate(); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}

	bad = valid
	bad.Trends = []Trend{{Type: "sideways"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown trend type")
	}
}
