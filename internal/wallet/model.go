package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// Account is the owner of a wallet. Immutable after creation.
type Account struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Wallet is a currency-scoped balance owned by an account. Its balance is
// only ever mutated by the ledger engine; this package creates and reads it.
type Wallet struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Currency  money.Currency
	Balance   decimal.Decimal
}

// AccountWithWallet is the joined provisioning view returned to callers.
type AccountWithWallet struct {
	AccountID uuid.UUID
	Name      string
	CreatedAt time.Time
	WalletID  uuid.UUID
	Currency  money.Currency
	Balance   decimal.Decimal
}
