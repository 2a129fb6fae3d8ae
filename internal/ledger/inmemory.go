package ledger

import (
	"context"
	"sort"
	"sync"
)

type inMemoryRepository struct {
	mu    sync.RWMutex
	seq   int64
	byID  map[string]*record
	byRef map[string]*record
}

type record struct {
	seq int64
	txn Transaction
}

// NewInMemory creates a concurrency-safe in-memory transaction store useful
// for development and unit tests.
func NewInMemory() Repository {
	return &inMemoryRepository{
		byID:  make(map[string]*record),
		byRef: make(map[string]*record),
	}
}

func (r *inMemoryRepository) Create(_ context.Context, txn Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRef[txn.TransactionID]; exists {
		return ErrDuplicateTransaction
	}
	r.seq++
	rec := &record{seq: r.seq, txn: copyTransaction(txn)}
	r.byID[txn.ID] = rec
	r.byRef[txn.TransactionID] = rec
	return nil
}

func (r *inMemoryRepository) FindByTransactionID(_ context.Context, transactionID string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byRef[transactionID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return copyTransaction(rec.txn), nil
}

func (r *inMemoryRepository) ListCompleted(_ context.Context, userID string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.filter(func(t Transaction) bool { return t.UserID == userID && t.Status == StatusCompleted })
	return toTransactions(recs), nil
}

func (r *inMemoryRepository) LatestCompleted(_ context.Context, userID string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.filter(func(t Transaction) bool { return t.UserID == userID && t.Status == StatusCompleted })
	if len(recs) == 0 {
		return Transaction{}, ErrNotFound
	}
	return copyTransaction(recs[len(recs)-1].txn), nil
}

func (r *inMemoryRepository) ListByType(_ context.Context, userID string, kind Type, limit int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := r.filter(func(t Transaction) bool { return t.UserID == userID && t.Type == kind })
	out := make([]Transaction, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, copyTransaction(recs[i].txn))
	}
	return out, nil
}

func (r *inMemoryRepository) Settle(_ context.Context, id string, status Status, snapshot *Balances) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.txn.Status = status
	if snapshot != nil {
		s := *snapshot
		rec.txn.BalanceAfter = &s
	}
	return nil
}

func (r *inMemoryRepository) AttachCheckout(_ context.Context, id, paymentLink, gatewayTxn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.txn.PaymentLink = paymentLink
	rec.txn.GatewayTxn = gatewayTxn
	return nil
}

func (r *inMemoryRepository) ArchiveAll(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.byID {
		if rec.txn.UserID == userID {
			rec.txn.Status = StatusArchived
			n++
		}
	}
	return n, nil
}

// filter returns matching records ordered by creation time, then insertion order.
func (r *inMemoryRepository) filter(match func(Transaction) bool) []*record {
	var out []*record
	for _, rec := range r.byID {
		if match(rec.txn) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.txn.CreatedAt.Equal(b.txn.CreatedAt) {
			return a.txn.CreatedAt.Before(b.txn.CreatedAt)
		}
		return a.seq < b.seq
	})
	return out
}

func toTransactions(recs []*record) []Transaction {
	out := make([]Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, copyTransaction(rec.txn))
	}
	return out
}

func copyTransaction(t Transaction) Transaction {
	if t.BalanceAfter != nil {
		s := *t.BalanceAfter
		t.BalanceAfter = &s
	}
	return t
}
