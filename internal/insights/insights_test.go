package insights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paydash/internal/core"
)

type stubSource struct{ txs []core.Transaction }

func (s stubSource) Transactions() []core.Transaction { return s.txs }

type stubAnalyzer struct {
	mu      sync.Mutex
	calls   int
	months  []string
	subsets [][]core.Transaction
	insight core.Insight
	err     error
	block   chan struct{} // when set, AnalyzeMonth waits until closed
}

func (a *stubAnalyzer) AnalyzeMonth(_ context.Context, month string, txs []core.Transaction) (core.Insight, error) {
	a.mu.Lock()
	a.calls++
	a.months = append(a.months, month)
	a.subsets = append(a.subsets, txs)
	block := a.block
	a.mu.Unlock()
	if block != nil {
		<-block
	}
	if a.err != nil {
		return core.Insight{}, a.err
	}
	return a.insight, nil
}

func sourceWithMonths() stubSource {
	return stubSource{txs: []core.Transaction{
		{ID: "1", Date: core.NewDate(2024, 1, 15), Merchant: "A", Amount: core.Money{Cents: 8999}, Category: "Shopping", Status: core.StatusCompleted},
		{ID: "2", Date: core.NewDate(2024, 1, 14), Merchant: "B", Amount: core.Money{Cents: 547}, Category: "Food & Dining", Status: core.StatusCompleted},
		{ID: "3", Date: core.NewDate(2024, 2, 1), Merchant: "C", Amount: core.Money{Cents: 100}, Category: "Other", Status: core.StatusCompleted},
	}}
}

func TestReanalyzeStoresUnderRequestMonth(t *testing.T) {
	analyzer := &stubAnalyzer{insight: core.Insight{Summary: "first"}}
	svc := NewService(analyzer, sourceWithMonths())

	got, err := svc.Reanalyze(context.Background(), "2024-01")
	if err != nil {
		t.Fatalf("reanalyze: %v", err)
	}
	if got.Month != "2024-01" {
		t.Errorf("insight keyed by %q, want request month", got.Month)
	}
	if len(analyzer.subsets[0]) != 2 {
		t.Errorf("expected the 2 January transactions, got %d", len(analyzer.subsets[0]))
	}

	cached, ok := svc.Get("2024-01")
	if !ok || cached.Summary != "first" {
		t.Errorf("cache lookup: %+v ok=%v", cached, ok)
	}
	if _, ok := svc.Get("2024-02"); ok {
		t.Error("other months must stay absent")
	}
}

func TestReanalyzeReplacesInPlace(t *testing.T) {
	analyzer := &stubAnalyzer{insight: core.Insight{Summary: "first"}}
	svc := NewService(analyzer, sourceWithMonths())
	ctx := context.Background()

	if _, err := svc.Reanalyze(ctx, "2024-01"); err != nil {
		t.Fatal(err)
	}
	analyzer.insight = core.Insight{Summary: "second"}
	if _, err := svc.Reanalyze(ctx, "2024-01"); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.Get("2024-01")
	if got.Summary != "second" {
		t.Errorf("expected replacement, got %q", got.Summary)
	}
	if months := svc.Months(); len(months) != 1 {
		t.Errorf("never two entries for one month: %v", months)
	}
}

func TestReanalyzeRejectsWhileBusy(t *testing.T) {
	block := make(chan struct{})
	analyzer := &stubAnalyzer{insight: core.Insight{Summary: "slow"}, block: block}
	svc := NewService(analyzer, sourceWithMonths())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reanalyze(context.Background(), "2024-01")
		done <- err
	}()

	// Wait until the first request is in flight.
	for !svc.Busy() {
		time.Sleep(time.Millisecond)
	}

	if _, err := svc.Reanalyze(context.Background(), "2024-02"); !errors.Is(err, ErrAnalysisInFlight) {
		t.Errorf("expected ErrAnalysisInFlight, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
	if svc.Busy() {
		t.Error("busy flag must clear after completion")
	}
}

func TestReanalyzeFailureLeavesCacheUntouched(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("service down")}
	svc := NewService(analyzer, sourceWithMonths())
	ctx := context.Background()

	if _, err := svc.Reanalyze(ctx, "2024-01"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := svc.Get("2024-01"); ok {
		t.Error("failure must not write an entry")
	}
	if svc.Busy() {
		t.Error("busy flag must clear on failure")
	}

	// Manual retry succeeds once the analyzer recovers.
	analyzer.err = nil
	analyzer.insight = core.Insight{Summary: "recovered"}
	if _, err := svc.Reanalyze(ctx, "2024-01"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got, ok := svc.Get("2024-01"); !ok || got.Summary != "recovered" {
		t.Errorf("retry result: %+v ok=%v", got, ok)
	}
}

func TestReanalyzeRejectsBadMonthKey(t *testing.T) {
	svc := NewService(&stubAnalyzer{}, stubSource{})
	if _, err := svc.Reanalyze(context.Background(), "October"); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Errorf("expected ErrInvalidMonthKey, got %v", err)
	}
}
