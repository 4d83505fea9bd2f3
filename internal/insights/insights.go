// Package insights holds the month-keyed cache of AI analysis results and
// the trigger that fills it. Each month is in one of three states: absent,
// loading (a request is in flight), or present. Re-analyzing a month
// replaces its entry in place; no history is kept per month.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"paydash/internal/core"
)

// ErrAnalysisInFlight is returned when a trigger arrives while another
// analysis request is still running. Only one request is tracked at a
// time; the caller retries after the current one settles.
var ErrAnalysisInFlight = errors.New("analysis already in progress")

// Analyzer produces an Insight for one month's transactions. The remote
// API client and the Gemini backend both implement it.
type Analyzer interface {
	AnalyzeMonth(ctx context.Context, month string, txs []core.Transaction) (core.Insight, error)
}

// TransactionSource supplies the live transaction list; the store
// implements it.
type TransactionSource interface {
	Transactions() []core.Transaction
}

// Service owns the insight cache. It never mutates transactions; it is a
// sibling state pool keyed independently of the store.
type Service struct {
	mu       sync.Mutex
	analyzer Analyzer
	source   TransactionSource
	busy     bool
	byMonth  map[string]core.Insight
}

func NewService(analyzer Analyzer, source TransactionSource) *Service {
	return &Service{
		analyzer: analyzer,
		source:   source,
		byMonth:  make(map[string]core.Insight),
	}
}

// Get is a pure lookup; it never triggers a network call.
func (s *Service) Get(month string) (core.Insight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	insight, ok := s.byMonth[month]
	return insight, ok
}

// Busy reports whether an analysis request is in flight.
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Reanalyze sends the month's transaction subset to the analyzer and
// stores the result under the month captured here, at request time —
// never under whatever month is being viewed when the response lands.
// On failure nothing is written and the busy flag is cleared so the
// caller can retry.
func (s *Service) Reanalyze(ctx context.Context, month string) (core.Insight, error) {
	if _, err := core.ParseMonthKey(month); err != nil {
		return core.Insight{}, err
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return core.Insight{}, ErrAnalysisInFlight
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	subset := core.TransactionsForMonth(s.source.Transactions(), month)
	insight, err := s.analyzer.AnalyzeMonth(ctx, month, subset)
	if err != nil {
		return core.Insight{}, fmt.Errorf("analyze month %s: %w", month, err)
	}
	insight.Month = month

	s.mu.Lock()
	s.byMonth[month] = insight
	s.mu.Unlock()

	slog.InfoContext(ctx, "Stored insight",
		"month", month,
		"transactions", len(subset),
		"score", insight.BudgetHealth.Score)
	return insight, nil
}

// Months returns the keys that currently have an insight.
func (s *Service) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byMonth))
	for month := range s.byMonth {
		out = append(out, month)
	}
	return out
}
