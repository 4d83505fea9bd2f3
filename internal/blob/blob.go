// Package blob defines the key-value blob store the dashboard persists
// into, plus the available backends. Values are opaque byte slices; the
// store layer decides what goes into them.
package blob

import (
	"context"
	"errors"
)

// Keys used by the transaction store and API client.
const (
	KeyTransactions = "payment-history-data"
	KeyCategories   = "payment-categories"
	KeyAccessToken  = "accessToken"
)

// ErrNotFound is returned by Get for keys that were never set or have
// been deleted.
var ErrNotFound = errors.New("blob: key not found")

// Store is the port for persistent key-value blob storage.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
