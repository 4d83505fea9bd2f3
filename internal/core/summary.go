package core

import (
	"math"
	"sort"
)

type (
	// MonthSummary aggregates one calendar month of transactions. It is
	// derived on demand from the live transaction list and never persisted.
	MonthSummary struct {
		Month        string           `json:"month"`
		Total        Money            `json:"total"`
		Transactions int              `json:"transactions"`
		Categories   map[string]Money `json:"categories"`
	}

	// CategoryShare is one row of the display-ready category breakdown.
	CategoryShare struct {
		Category   string `json:"category"`
		Amount     Money  `json:"amount"`
		Percentage int    `json:"percentage"`
	}
)

// Summarize groups transactions by month key and sums amounts per month
// and per category within each month.
func Summarize(txs []Transaction) map[string]MonthSummary {
	out := make(map[string]MonthSummary)
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		ms, ok := out[key]
		if !ok {
			ms = MonthSummary{Month: key, Categories: make(map[string]Money)}
		}
		ms.Total.Cents += tx.Amount.Cents
		ms.Transactions++
		cat := ms.Categories[tx.Category]
		cat.Cents += tx.Amount.Cents
		ms.Categories[tx.Category] = cat
		out[key] = ms
	}
	return out
}

// SummarizeMonth returns the summary for a single month. The zero summary
// (no transactions) carries an empty category map.
func SummarizeMonth(txs []Transaction, month string) MonthSummary {
	if ms, ok := Summarize(txs)[month]; ok {
		return ms
	}
	return MonthSummary{Month: month, Categories: make(map[string]Money)}
}

// TransactionsForMonth filters the list down to the transactions whose
// derived month key matches. Input order is preserved.
func TransactionsForMonth(txs []Transaction, month string) []Transaction {
	var out []Transaction
	for _, tx := range txs {
		if tx.Date.MonthKey() == month {
			out = append(out, tx)
		}
	}
	return out
}

// Breakdown derives the per-category shares for one month: summed amount
// and percentage of the month total rounded to the nearest integer,
// sorted by amount descending. Ties keep the original encounter order.
func Breakdown(txs []Transaction, month string) []CategoryShare {
	var (
		order  []string
		totals = make(map[string]int64)
		total  int64
	)
	for _, tx := range txs {
		if tx.Date.MonthKey() != month {
			continue
		}
		if _, seen := totals[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		totals[tx.Category] += tx.Amount.Cents
		total += tx.Amount.Cents
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		amount := totals[cat]
		pct := 0
		if total != 0 {
			pct = int(math.Round(float64(amount) / float64(total) * 100))
		}
		shares = append(shares, CategoryShare{
			Category:   cat,
			Amount:     Money{Cents: amount},
			Percentage: pct,
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.Cents > shares[j].Amount.Cents
	})
	return shares
}
