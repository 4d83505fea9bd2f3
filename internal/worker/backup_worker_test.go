package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"paydash/internal/amqp"
	"paydash/internal/blob"
	"paydash/internal/core"
	"paydash/internal/store"
)

type recordingWriter struct {
	months []string
	err    error
}

func (r *recordingWriter) WriteMonthSummary(_ context.Context, s core.MonthSummary) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.months = append(r.months, s.Month)
	return "Summaries!A2:D2", nil
}

func seedTransactions(t *testing.T, blobs blob.Store, txs []core.Transaction) {
	t.Helper()
	raw, err := json.Marshal(txs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := blobs.Set(context.Background(), blob.KeyTransactions, raw); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{
			ID:       "tx-1",
			Date:     core.Date{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			Merchant: "Whole Foods",
			Amount:   core.Money{Cents: 8999},
			Category: "Groceries",
			Status:   core.StatusCompleted,
		},
		{
			ID:       "tx-2",
			Date:     core.Date{Time: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
			Merchant: "Metro",
			Amount:   core.Money{Cents: 547},
			Category: "Transport",
			Status:   core.StatusCompleted,
		},
	}
}

func TestSnapshotWritesDatedFile(t *testing.T) {
	blobs := blob.NewMemoryStore()
	txs := sampleTransactions()
	seedTransactions(t, blobs, txs)

	dir := t.TempDir()
	w := NewBackupWorker(blobs, nil, dir)

	if err := w.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	name := fmt.Sprintf("payment-history-%s.json", time.Now().Format("2006-01-02"))
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var got []core.Transaction
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if !reflect.DeepEqual(got, txs) {
		t.Errorf("snapshot differs from persisted state: %+v", got)
	}
}

func TestSnapshotSkipsWhenNothingPersisted(t *testing.T) {
	dir := t.TempDir()
	w := NewBackupWorker(blob.NewMemoryStore(), nil, dir)

	if err := w.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no snapshot files, found %d", len(entries))
	}
}

func TestSnapshotRejectsCorruptBlob(t *testing.T) {
	blobs := blob.NewMemoryStore()
	if err := blobs.Set(context.Background(), blob.KeyTransactions, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	w := NewBackupWorker(blobs, nil, t.TempDir())
	if err := w.Snapshot(context.Background()); err == nil {
		t.Error("expected error for corrupt blob")
	}
}

func TestHandleChangeIgnoresCategoryEdits(t *testing.T) {
	dir := t.TempDir()
	blobs := blob.NewMemoryStore()
	seedTransactions(t, blobs, sampleTransactions())

	w := NewBackupWorker(blobs, nil, dir)
	msg := amqp.NewChangeMessage(store.CollectionCategories, 5)
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("category change should not snapshot, found %d files", len(entries))
	}
}

func TestHandleChangeExportsSummaries(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seedTransactions(t, blobs, sampleTransactions())

	writer := &recordingWriter{}
	w := NewBackupWorker(blobs, writer, t.TempDir())

	msg := amqp.NewChangeMessage(store.CollectionTransactions, 2)
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	want := []string{"2024-01", "2024-02"}
	if !reflect.DeepEqual(writer.months, want) {
		t.Errorf("exported months = %v, want %v", writer.months, want)
	}
}

func TestSnapshotSurvivesExportFailure(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seedTransactions(t, blobs, sampleTransactions())

	dir := t.TempDir()
	writer := &recordingWriter{err: errors.New("sheet unavailable")}
	w := NewBackupWorker(blobs, writer, dir)

	if err := w.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot should not fail on export error: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected snapshot file despite export failure, found %d", len(entries))
	}
}
