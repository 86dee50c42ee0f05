package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// MemoryStore is an in-memory Store for unit tests and dev mode. A store
// mutex held from Begin until Commit/Rollback serializes units of work,
// which is a coarse but faithful emulation of row locks: concurrent callers
// block and then observe each other's committed effect exactly once.
type MemoryStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]Wallet
	records []Record
}

// Record is one committed transaction together with its postings.
type Record struct {
	Transaction Transaction
	Postings    []Posting
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wallets: make(map[uuid.UUID]Wallet)}
}

// Begin blocks until no other unit of work is open, then starts one.
func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	return &memoryTx{store: s, staged: make(map[uuid.UUID]decimal.Decimal)}, nil
}

// PutWallet inserts or replaces a wallet row. Must not be called while a
// unit of work is open.
func (s *MemoryStore) PutWallet(w Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
}

// GetWallet returns the committed wallet row, if present.
func (s *MemoryStore) GetWallet(walletID uuid.UUID) (Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	return w, ok
}

// WalletByAccount returns the wallet owned by the given account, if any.
func (s *MemoryStore) WalletByAccount(accountID uuid.UUID) (Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.AccountID == accountID {
			return w, true
		}
	}
	return Wallet{}, false
}

// Records returns a copy of all committed transactions in commit order.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// LastRecord returns the most recently committed transaction.
func (s *MemoryStore) LastRecord() (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

type memoryTx struct {
	store   *MemoryStore
	staged  map[uuid.UUID]decimal.Decimal
	pending []Record
	done    bool
}

func (t *memoryTx) LockWallet(_ context.Context, walletID uuid.UUID, currency money.Currency) (Wallet, error) {
	w, ok := t.store.wallets[walletID]
	if !ok || w.Balance.Currency != currency {
		return Wallet{}, &WalletNotFoundError{WalletID: walletID, Currency: currency}
	}
	if staged, ok := t.staged[walletID]; ok {
		w.Balance = money.New(staged, currency)
	}
	return w, nil
}

func (t *memoryTx) ApplyDelta(_ context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	w, ok := t.store.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %s does not exist", walletID)
	}
	current := w.Balance.Amount
	if staged, ok := t.staged[walletID]; ok {
		current = staged
	}
	t.staged[walletID] = current.Add(delta)
	return nil
}

func (t *memoryTx) RecordTransaction(_ context.Context, kind Kind, postings []Posting) (uuid.UUID, error) {
	if err := checkPostings(kind, postings); err != nil {
		return uuid.Nil, err
	}
	rec := Record{
		Transaction: Transaction{ID: uuid.New(), Kind: kind, CreatedAt: time.Now().UTC()},
		Postings:    append([]Posting(nil), postings...),
	}
	t.pending = append(t.pending, rec)
	return rec.Transaction.ID, nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("tx is closed")
	}
	for walletID, balance := range t.staged {
		w := t.store.wallets[walletID]
		w.Balance = money.New(balance, w.Balance.Currency)
		t.store.wallets[walletID] = w
	}
	t.store.records = append(t.store.records, t.pending...)
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
