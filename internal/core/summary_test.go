package core

import (
	"errors"
	"testing"
	"time"
)

func tx(date Date, cents int64, category string) Transaction {
	return Transaction{
		Date:     date,
		Merchant: "m",
		Amount:   Money{Cents: cents},
		Category: category,
		Status:   StatusCompleted,
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 15), 8999, "Shopping"),
		tx(NewDate(2024, 1, 14), 547, "Food & Dining"),
	}

	got := Summarize(txs)
	ms, ok := got["2024-01"]
	if !ok {
		t.Fatal("missing summary for 2024-01")
	}
	if ms.Total.Cents != 9546 {
		t.Errorf("total: expected 9546 cents, got %d", ms.Total.Cents)
	}
	if ms.Transactions != 2 {
		t.Errorf("count: expected 2, got %d", ms.Transactions)
	}
	if ms.Categories["Shopping"].Cents != 8999 {
		t.Errorf("Shopping: expected 8999, got %d", ms.Categories["Shopping"].Cents)
	}
	if ms.Categories["Food & Dining"].Cents != 547 {
		t.Errorf("Food & Dining: expected 547, got %d", ms.Categories["Food & Dining"].Cents)
	}
}

func TestSummarizeCategorySumsMatchTotal(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 1), 1000, "A"),
		tx(NewDate(2024, 1, 2), -250, "B"),
		tx(NewDate(2024, 2, 3), 789, "A"),
		tx(NewDate(2024, 2, 4), 311, "C"),
		tx(NewDate(2024, 2, 5), 900, "A"),
	}
	for month, ms := range Summarize(txs) {
		var sum int64
		for _, amount := range ms.Categories {
			sum += amount.Cents
		}
		if sum != ms.Total.Cents {
			t.Errorf("%s: category sum %d != total %d", month, sum, ms.Total.Cents)
		}
		if got := len(TransactionsForMonth(txs, month)); got != ms.Transactions {
			t.Errorf("%s: count %d != filtered length %d", month, ms.Transactions, got)
		}
	}
}

func TestBreakdown(t *testing.T) {
	txs := []Transaction{
		tx(NewDate(2024, 1, 1), 2500, "Transport"),
		tx(NewDate(2024, 1, 2), 5000, "Groceries"),
		tx(NewDate(2024, 1, 3), 2500, "Entertainment"),
		tx(NewDate(2024, 2, 1), 9999, "Other"), // different month, excluded
	}

	shares := Breakdown(txs, "2024-01")
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	if shares[0].Category != "Groceries" || shares[0].Percentage != 50 {
		t.Errorf("top share: got %+v", shares[0])
	}
	// Ties keep encounter order: Transport appeared before Entertainment.
	if shares[1].Category != "Transport" || shares[2].Category != "Entertainment" {
		t.Errorf("tie order: got %q then %q", shares[1].Category, shares[2].Category)
	}

	var pctSum int
	for _, s := range shares {
		pctSum += s.Percentage
	}
	if diff := pctSum - 100; diff < -len(shares) || diff > len(shares) {
		t.Errorf("percentages sum %d outside rounding bound", pctSum)
	}
}

func TestBreakdownEmptyMonth(t *testing.T) {
	if shares := Breakdown(nil, "2024-01"); len(shares) != 0 {
		t.Errorf("expected no shares, got %v", shares)
	}
}

func TestMonthNavigation(t *testing.T) {
	cases := []struct {
		key  string
		prev string
	}{
		{"2024-02", "2024-01"},
		{"2024-01", "2023-12"}, // year rollover
		{"2023-12", "2023-11"},
	}
	for _, tc := range cases {
		prev, err := PrevMonth(tc.key)
		if err != nil {
			t.Fatalf("PrevMonth(%q): %v", tc.key, err)
		}
		if prev != tc.prev {
			t.Errorf("PrevMonth(%q): expected %q, got %q", tc.key, tc.prev, prev)
		}
		next, err := NextMonth(prev)
		if err != nil {
			t.Fatalf("NextMonth(%q): %v", prev, err)
		}
		if next != tc.key {
			t.Errorf("NextMonth(PrevMonth(%q)): expected %q, got %q", tc.key, tc.key, next)
		}
	}

	if _, err := PrevMonth("nope"); !errors.Is(err, ErrInvalidMonthKey) {
		t.Errorf("expected ErrInvalidMonthKey, got %v", err)
	}
}

func TestNextMonthRefusesFuture(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	if _, err := nextMonthAt("2024-06", now); !errors.Is(err, ErrFutureMonth) {
		t.Errorf("current month: expected ErrFutureMonth, got %v", err)
	}
	if _, err := nextMonthAt("2024-07", now); !errors.Is(err, ErrFutureMonth) {
		t.Errorf("future month: expected ErrFutureMonth, got %v", err)
	}
	got, err := nextMonthAt("2024-05", now)
	if err != nil || got != "2024-06" {
		t.Errorf("expected 2024-06, got %q (err=%v)", got, err)
	}
}
