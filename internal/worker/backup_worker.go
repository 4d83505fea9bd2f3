package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"paydash/internal/amqp"
	"paydash/internal/blob"
	"paydash/internal/core"
	"paydash/internal/sheets"
	"paydash/internal/store"
)

// BackupWorker mirrors the transaction collection to dated JSON snapshots
// whenever a change message arrives, and optionally exports the per-month
// summaries to an external sheet.
type BackupWorker struct {
	blobs     blob.Store
	summaries sheets.SummaryWriter // nil disables sheet export
	backupDir string
}

func NewBackupWorker(blobs blob.Store, summaries sheets.SummaryWriter, backupDir string) *BackupWorker {
	return &BackupWorker{
		blobs:     blobs,
		summaries: summaries,
		backupDir: backupDir,
	}
}

// HandleChange processes a single change message. Category-only edits carry
// no transaction data, so only transaction changes trigger a snapshot.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"count", msg.Count)

	if msg.Collection != store.CollectionTransactions {
		return nil
	}
	return w.Snapshot(ctx)
}

// Snapshot reads the persisted transaction collection and writes it to
// payment-history-<date>.json in the backup directory. Snapshots taken on
// the same day overwrite each other. A missing blob means nothing has been
// persisted yet and is not an error.
func (w *BackupWorker) Snapshot(ctx context.Context) error {
	raw, err := w.blobs.Get(ctx, blob.KeyTransactions)
	if errors.Is(err, blob.ErrNotFound) {
		slog.InfoContext(ctx, "No persisted transactions yet, skipping snapshot")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read transactions blob: %w", err)
	}

	var txs []core.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return fmt.Errorf("decode transactions blob: %w", err)
	}

	if err := os.MkdirAll(w.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("payment-history-%s.json", time.Now().Format("2006-01-02"))
	path := filepath.Join(w.backupDir, name)

	pretty, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pretty, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot written",
		"path", path,
		"transactions", len(txs))

	w.exportSummaries(ctx, txs)
	return nil
}

// exportSummaries writes one sheet row per month present in the snapshot.
// Export failures are logged and never fail the snapshot that triggered them.
func (w *BackupWorker) exportSummaries(ctx context.Context, txs []core.Transaction) {
	if w.summaries == nil {
		return
	}

	byMonth := core.Summarize(txs)
	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		ref, err := w.summaries.WriteMonthSummary(ctx, byMonth[month])
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export month summary",
				"month", month,
				"error", err)
			continue
		}
		slog.InfoContext(ctx, "Month summary exported",
			"month", month,
			"sheets_ref", ref)
	}
}

// StartupCheck takes an initial snapshot so state persisted while the
// worker was down is not lost to a missed change message.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup snapshot check")
	return w.Snapshot(ctx)
}
