// Package txn provides the transaction handle the planner threads through to
// the catalog and the cardinality estimator. The planner never starts or
// commits transactions; it only keys metadata caches on the handle.
package txn

import "sync/atomic"

// TransactionID uniquely identifies a transaction.
type TransactionID uint64

// InvalidTransactionID is the zero value, never assigned to a live transaction.
const InvalidTransactionID TransactionID = 0

// Transaction is a read handle on a storage snapshot.
type Transaction struct {
	id TransactionID
}

// ID returns the transaction identifier.
func (t *Transaction) ID() TransactionID {
	return t.id
}

var nextID atomic.Uint64

// New returns a transaction handle with a fresh identifier.
func New() *Transaction {
	return &Transaction{id: TransactionID(nextID.Add(1))}
}
