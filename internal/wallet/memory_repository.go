package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/opal-pay/opal_pay/internal/ledger"
	"github.com/opal-pay/opal_pay/internal/money"
)

// memoryRepository keeps account rows locally and delegates wallet rows to
// the in-memory ledger store, so provisioning and the engine share one view
// of wallet balances in tests and dev mode.
type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	store    *ledger.MemoryStore
}

// NewMemoryRepository constructs an in-memory repository on top of the
// shared ledger store.
func NewMemoryRepository(store *ledger.MemoryStore) Repository {
	return &memoryRepository{accounts: make(map[uuid.UUID]Account), store: store}
}

func (r *memoryRepository) CreateAccountWithWallet(_ context.Context, account Account, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.ID]; exists {
		return errors.New("account exists")
	}
	r.accounts[account.ID] = account
	r.store.PutWallet(ledger.Wallet{
		ID:        wallet.ID,
		AccountID: wallet.AccountID,
		Balance:   money.New(wallet.Balance, wallet.Currency),
	})
	return nil
}

func (r *memoryRepository) GetAccountWithWallet(_ context.Context, accountID uuid.UUID) (AccountWithWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return AccountWithWallet{}, ErrAccountNotFound
	}
	w, ok := r.store.WalletByAccount(accountID)
	if !ok {
		return AccountWithWallet{}, ErrAccountNotFound
	}
	return AccountWithWallet{
		AccountID: account.ID,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
		WalletID:  w.ID,
		Currency:  w.Balance.Currency,
		Balance:   w.Balance.Amount,
	}, nil
}
