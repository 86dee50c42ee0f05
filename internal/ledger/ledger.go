package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// Kind tags a recorded transaction with the operation that produced it.
type Kind string

const (
	// KindTransfer is a balanced two-posting move between wallets.
	KindTransfer Kind = "transfer"
	// KindReplenish is an injection of funds from outside the ledger,
	// recorded as a single positive posting.
	KindReplenish Kind = "replenish"
)

// Wallet is the balance view of a wallet row as seen by the engine. It is
// always read under a row lock held for the rest of the unit of work.
type Wallet struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Balance   money.Money
}

// Transaction is one immutable money-movement event.
type Transaction struct {
	ID        uuid.UUID
	Kind      Kind
	CreatedAt time.Time
}

// Posting is one signed line item of a transaction: one wallet's side of a
// money movement.
type Posting struct {
	WalletID uuid.UUID
	Value    money.Money
}

// Store opens atomic units of work against the shared wallet/ledger tables.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single unit of work. All reads and writes happen inside it; row
// locks taken by LockWallet are held until Commit or Rollback.
type Tx interface {
	// LockWallet acquires a write lock on the wallet row identified by the
	// (id, currency) pair and returns its current balance. A currency that
	// does not match the stored row is a not-found, not a conversion case.
	LockWallet(ctx context.Context, walletID uuid.UUID, currency money.Currency) (Wallet, error)

	// ApplyDelta adds a signed delta to the wallet's stored balance. The
	// caller must have validated the resulting balance already; the write is
	// unconditional.
	ApplyDelta(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error

	// RecordTransaction appends one transaction row and its postings. The
	// postings must balance per checkPostings.
	RecordTransaction(ctx context.Context, kind Kind, postings []Posting) (uuid.UUID, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// checkPostings enforces the double-entry invariant: the postings of a
// transaction sum to zero per currency. The replenish kind is exempt and
// must instead carry exactly one positive posting.
func checkPostings(kind Kind, postings []Posting) error {
	if kind == KindReplenish {
		if len(postings) != 1 {
			return fmt.Errorf("replenish requires exactly one posting, got %d", len(postings))
		}
		if !postings[0].Value.IsPositive() {
			return fmt.Errorf("replenish posting must be positive, got %s", postings[0].Value)
		}
		return nil
	}

	if len(postings) < 2 {
		return fmt.Errorf("%s requires at least two postings, got %d", kind, len(postings))
	}
	sums := make(map[money.Currency]decimal.Decimal)
	for _, p := range postings {
		sums[p.Value.Currency] = sums[p.Value.Currency].Add(p.Value.Amount)
	}
	for currency, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("postings for %s sum to %s, want 0", currency, sum)
		}
	}
	return nil
}
