package store

import "paydash/internal/core"

// seedTransactions is the built-in collection used when nothing has been
// persisted yet or the persisted blob fails to parse. Shipping an empty
// seed keeps a fresh install blank until the first import or add.
func seedTransactions() []core.Transaction {
	return []core.Transaction{}
}
