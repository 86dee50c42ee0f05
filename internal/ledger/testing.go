package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// SeedWallet is a test helper that creates a wallet row with the given
// balance when the store is the in-memory implementation.
func SeedWallet(s Store, walletID, accountID uuid.UUID, balance decimal.Decimal, currency money.Currency) {
	if mem, ok := s.(*MemoryStore); ok {
		mem.PutWallet(Wallet{
			ID:        walletID,
			AccountID: accountID,
			Balance:   money.New(balance, currency),
		})
	}
}
