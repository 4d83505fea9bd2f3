// Package store owns the transaction collection and category set for the
// lifetime of a session. It is the single source of truth: every mutation
// goes through one explicitly constructed Store and is re-persisted to the
// blob store synchronously. There is no ambient singleton.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"paydash/internal/blob"
	"paydash/internal/core"
)

// Authenticator is the external gate the store waits on before reporting
// ready. Implementations map "not authenticated" onto an error that the
// caller turns into a login redirect; it is never a data error.
type Authenticator interface {
	Me(ctx context.Context) error
}

// ChangePublisher receives a notification after each successful mutation.
// A nil publisher disables notifications; publish failures never fail the
// mutation.
type ChangePublisher interface {
	PublishDataChanged(ctx context.Context, collection string, count int) error
}

// Collections named in change messages.
const (
	CollectionTransactions = "transactions"
	CollectionCategories   = "categories"
)

// Patch is a partial transaction update. Nil fields are left untouched.
type Patch struct {
	Date          *core.Date   `json:"date"`
	Merchant      *string      `json:"merchant"`
	Amount        *core.Money  `json:"amount"`
	Category      *string      `json:"category"`
	Description   *string      `json:"description"`
	Status        *core.Status `json:"status"`
	PaymentMethod *string      `json:"paymentMethod"`
}

// Store holds the live collections and persists them on every change.
type Store struct {
	mu        sync.Mutex
	blobs     blob.Store
	auth      Authenticator
	publisher ChangePublisher
	seed      []core.Transaction

	ready        bool
	transactions []core.Transaction
	categories   []string
}

// New creates an unready store. auth and publisher may be nil; a nil auth
// skips the authentication gate (used by tests and the worker).
func New(blobs blob.Store, auth Authenticator, publisher ChangePublisher) *Store {
	return &Store{
		blobs:     blobs,
		auth:      auth,
		publisher: publisher,
		seed:      seedTransactions(),
	}
}

// Init runs the authentication gate and loads the persisted collections.
// A missing or corrupt blob falls back to the seed collection and is
// logged only; an authentication failure propagates so the caller can
// redirect to login.
func (s *Store) Init(ctx context.Context) error {
	if s.auth != nil {
		if err := s.auth.Me(ctx); err != nil {
			return fmt.Errorf("authentication gate: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = s.loadTransactions(ctx)
	s.categories = s.loadCategories(ctx)
	s.ready = true

	slog.InfoContext(ctx, "Transaction store ready",
		"transactions", len(s.transactions),
		"categories", len(s.categories))
	return nil
}

// Ready reports whether Init completed. Consumers must not read
// transactions before the store is ready.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Store) loadTransactions(ctx context.Context) []core.Transaction {
	data, err := s.blobs.Get(ctx, blob.KeyTransactions)
	if err != nil {
		if err != blob.ErrNotFound {
			slog.ErrorContext(ctx, "Failed to load saved transactions", "error", err)
		}
		return append([]core.Transaction(nil), s.seed...)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		slog.ErrorContext(ctx, "Failed to parse saved transactions", "error", err)
		return append([]core.Transaction(nil), s.seed...)
	}
	return txs
}

func (s *Store) loadCategories(ctx context.Context) []string {
	data, err := s.blobs.Get(ctx, blob.KeyCategories)
	if err != nil {
		if err != blob.ErrNotFound {
			slog.ErrorContext(ctx, "Failed to load saved categories", "error", err)
		}
		return deriveCategories(s.transactions)
	}
	var cats []string
	if err := json.Unmarshal(data, &cats); err != nil {
		slog.ErrorContext(ctx, "Failed to parse saved categories", "error", err)
		return deriveCategories(s.transactions)
	}
	return cats
}

// Transactions returns a copy of the collection, most recent first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Categories returns a copy of the category set, sorted ascending.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...)
}

// AddTransaction assigns a fresh ID, prepends the transaction, and inserts
// its category into the set if it is not yet known.
func (s *Store) AddTransaction(ctx context.Context, data core.Transaction) (core.Transaction, error) {
	if err := data.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	data.ID = uuid.NewString()
	s.transactions = append([]core.Transaction{data}, s.transactions...)
	catChanged := s.insertCategoryLocked(data.Category)
	s.persistTransactionsLocked(ctx)
	if catChanged {
		s.persistCategoriesLocked(ctx)
	}
	count := len(s.transactions)
	s.mu.Unlock()

	s.notify(ctx, CollectionTransactions, count)
	return data, nil
}

// UpdateTransaction merges the patch into the matching transaction. An
// unknown id is a silent no-op. A new category value is added to the set.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	idx := -1
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	applyPatch(&s.transactions[idx], patch)
	catChanged := false
	if patch.Category != nil {
		catChanged = s.insertCategoryLocked(*patch.Category)
	}
	s.persistTransactionsLocked(ctx)
	if catChanged {
		s.persistCategoriesLocked(ctx)
	}
	count := len(s.transactions)
	s.mu.Unlock()

	s.notify(ctx, CollectionTransactions, count)
	return nil
}

// DeleteTransaction removes the matching transaction; absent ids are a
// silent no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.transactions[:0]
	removed := false
	for _, tx := range s.transactions {
		if tx.ID == id {
			removed = true
			continue
		}
		kept = append(kept, tx)
	}
	s.transactions = kept
	if removed {
		s.persistTransactionsLocked(ctx)
	}
	count := len(s.transactions)
	s.mu.Unlock()

	if removed {
		s.notify(ctx, CollectionTransactions, count)
	}
	return nil
}

// AddCategory inserts the category, keeping the set sorted. Idempotent.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	if name == "" {
		return core.ErrEmptyCategory
	}

	s.mu.Lock()
	changed := s.insertCategoryLocked(name)
	if changed {
		s.persistCategoriesLocked(ctx)
	}
	count := len(s.categories)
	s.mu.Unlock()

	if changed {
		s.notify(ctx, CollectionCategories, count)
	}
	return nil
}

// DeleteCategory removes the category from the set and reassigns every
// transaction holding it to the Uncategorized sentinel.
func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	kept := s.categories[:0]
	removed := false
	for _, cat := range s.categories {
		if cat == name {
			removed = true
			continue
		}
		kept = append(kept, cat)
	}
	s.categories = kept

	swept := false
	for i := range s.transactions {
		if s.transactions[i].Category == name {
			s.transactions[i].Category = core.Uncategorized
			swept = true
		}
	}

	if removed {
		s.persistCategoriesLocked(ctx)
	}
	if swept {
		s.persistTransactionsLocked(ctx)
	}
	catCount := len(s.categories)
	txCount := len(s.transactions)
	s.mu.Unlock()

	if removed {
		s.notify(ctx, CollectionCategories, catCount)
	}
	if swept {
		// The sweep rewrote the transactions blob too, so downstream
		// consumers need a transactions change as well.
		s.notify(ctx, CollectionTransactions, txCount)
	}
	return nil
}

// ImportTransactions replaces the whole collection and re-derives the
// category set from it. This is a full re-sync, not a merge.
func (s *Store) ImportTransactions(ctx context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	s.transactions = append([]core.Transaction(nil), txs...)
	s.categories = deriveCategories(s.transactions)
	s.persistTransactionsLocked(ctx)
	s.persistCategoriesLocked(ctx)
	count := len(s.transactions)
	s.mu.Unlock()

	s.notify(ctx, CollectionTransactions, count)
	return nil
}

// ExportTransactions produces a pretty-printed JSON snapshot of the
// collection. The format round-trips through ImportTransactions.
func (s *Store) ExportTransactions() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transactions == nil {
		return []byte("[]"), nil
	}
	data, err := json.MarshalIndent(s.transactions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transactions: %w", err)
	}
	return data, nil
}

// ClearAllData empties both collections and erases the persisted blobs.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	s.transactions = nil
	s.categories = nil
	var errs []error
	if err := s.blobs.Delete(ctx, blob.KeyTransactions); err != nil {
		errs = append(errs, err)
	}
	if err := s.blobs.Delete(ctx, blob.KeyCategories); err != nil {
		errs = append(errs, err)
	}
	s.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("clear persisted data: %v", errs)
	}
	s.notify(ctx, CollectionTransactions, 0)
	return nil
}

// insertCategoryLocked adds the category if unknown, re-sorting the set.
// Returns true when the set changed. Empty names are ignored.
func (s *Store) insertCategoryLocked(name string) bool {
	if name == "" {
		return false
	}
	for _, cat := range s.categories {
		if cat == name {
			return false
		}
	}
	s.categories = append(s.categories, name)
	sort.Strings(s.categories)
	return true
}

// Each collection is written after it changes, only while non-empty
// (clear-all deletes explicitly), and a write failure is logged, never
// surfaced as a mutation error.
func (s *Store) persistTransactionsLocked(ctx context.Context) {
	if len(s.transactions) == 0 {
		return
	}
	data, err := json.Marshal(s.transactions)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal transactions", "error", err)
		return
	}
	if err := s.blobs.Set(ctx, blob.KeyTransactions, data); err != nil {
		slog.ErrorContext(ctx, "Failed to persist transactions", "error", err)
	}
}

func (s *Store) persistCategoriesLocked(ctx context.Context) {
	if len(s.categories) == 0 {
		return
	}
	data, err := json.Marshal(s.categories)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal categories", "error", err)
		return
	}
	if err := s.blobs.Set(ctx, blob.KeyCategories, data); err != nil {
		slog.ErrorContext(ctx, "Failed to persist categories", "error", err)
	}
}

func (s *Store) notify(ctx context.Context, collection string, count int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDataChanged(ctx, collection, count); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"collection", collection, "error", err)
	}
}

func applyPatch(tx *core.Transaction, patch Patch) {
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Merchant != nil {
		tx.Merchant = *patch.Merchant
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Category != nil {
		tx.Category = *patch.Category
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Status != nil {
		tx.Status = *patch.Status
	}
	if patch.PaymentMethod != nil {
		tx.PaymentMethod = *patch.PaymentMethod
	}
}

func deriveCategories(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tx := range txs {
		if tx.Category == "" {
			continue
		}
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	sort.Strings(out)
	return out
}
