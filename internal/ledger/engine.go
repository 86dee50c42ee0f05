package ledger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// Config carries the engine's operating limits. The maximum balance is an
// explicit value handed to the constructor, never ambient global state.
type Config struct {
	MaxAmount decimal.Decimal
}

// Engine moves money between wallets as atomic double-entry operations. It
// holds no mutable state of its own; all coordination happens through row
// locks inside a single Store unit of work per call.
type Engine struct {
	store     Store
	maxAmount decimal.Decimal
}

// NewEngine builds a transfer/replenish engine on top of the given store.
func NewEngine(store Store, cfg Config) *Engine {
	return &Engine{store: store, maxAmount: cfg.MaxAmount}
}

// TransferInput identifies both wallets by (id, currency) and the exact
// amount to move.
type TransferInput struct {
	FromWalletID uuid.UUID
	FromCurrency money.Currency
	ToWalletID   uuid.UUID
	ToCurrency   money.Currency
	Amount       decimal.Decimal
}

// TransferResult reports the committed balances on both sides.
type TransferResult struct {
	TransactionID uuid.UUID
	FromWalletID  uuid.UUID
	FromBalance   decimal.Decimal
	FromCurrency  money.Currency
	ToWalletID    uuid.UUID
	ToBalance     decimal.Decimal
	ToCurrency    money.Currency
}

// ReplenishInput identifies the wallet to credit and the exact amount.
type ReplenishInput struct {
	WalletID uuid.UUID
	Amount   decimal.Decimal
	Currency money.Currency
}

// ReplenishResult reports the committed balance after the credit.
type ReplenishResult struct {
	TransactionID uuid.UUID
	WalletID      uuid.UUID
	Balance       decimal.Decimal
	Currency      money.Currency
}

// Transfer moves Amount from the source wallet to the destination wallet
// inside one unit of work: lock both rows in ascending wallet-id order,
// check destination capacity, then source sufficiency, apply both deltas and
// append the balanced transaction. Any failure rolls the whole unit back.
func (e *Engine) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if err := input.validate(); err != nil {
		return TransferResult{}, err
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return TransferResult{}, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Fixed global lock order keeps opposite-direction transfers between the
	// same pair of wallets from deadlocking.
	refs := []walletRef{
		{ID: input.FromWalletID, Currency: input.FromCurrency},
		{ID: input.ToWalletID, Currency: input.ToCurrency},
	}
	if bytes.Compare(refs[1].ID[:], refs[0].ID[:]) < 0 {
		refs[0], refs[1] = refs[1], refs[0]
	}

	locked := make(map[uuid.UUID]Wallet, 2)
	for _, ref := range refs {
		w, err := tx.LockWallet(ctx, ref.ID, ref.Currency)
		if err != nil {
			return TransferResult{}, err
		}
		locked[ref.ID] = w
	}
	source := locked[input.FromWalletID]
	dest := locked[input.ToWalletID]

	amount := money.New(input.Amount, input.FromCurrency)

	// Destination capacity is checked before source sufficiency; a request
	// that would violate both reports the overflow.
	newDest, err := dest.Balance.Add(amount)
	if err != nil {
		return TransferResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if newDest.GreaterThan(e.maxAmount) {
		return TransferResult{}, &MaxAmountExceededError{
			WalletID:      dest.ID,
			MaxAmount:     e.maxAmount,
			CurrentAmount: dest.Balance.Amount,
		}
	}

	newSource, err := source.Balance.Sub(amount)
	if err != nil {
		return TransferResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if newSource.IsNegative() {
		return TransferResult{}, &InsufficientFundsError{
			WalletID: source.ID,
			Amount:   input.Amount,
			Currency: input.FromCurrency,
		}
	}

	if err := tx.ApplyDelta(ctx, source.ID, input.Amount.Neg()); err != nil {
		return TransferResult{}, fmt.Errorf("debit wallet %s: %w", source.ID, err)
	}
	if err := tx.ApplyDelta(ctx, dest.ID, input.Amount); err != nil {
		return TransferResult{}, fmt.Errorf("credit wallet %s: %w", dest.ID, err)
	}

	txID, err := tx.RecordTransaction(ctx, KindTransfer, []Posting{
		{WalletID: source.ID, Value: amount.Neg()},
		{WalletID: dest.ID, Value: amount},
	})
	if err != nil {
		return TransferResult{}, fmt.Errorf("record transfer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, fmt.Errorf("commit transfer: %w", err)
	}

	return TransferResult{
		TransactionID: txID,
		FromWalletID:  source.ID,
		FromBalance:   newSource.Amount,
		FromCurrency:  newSource.Currency,
		ToWalletID:    dest.ID,
		ToBalance:     newDest.Amount,
		ToCurrency:    newDest.Currency,
	}, nil
}

// Replenish credits a single wallet from outside the ledger, recording the
// deliberately unbalanced single-posting transaction.
func (e *Engine) Replenish(ctx context.Context, input ReplenishInput) (ReplenishResult, error) {
	if err := input.validate(); err != nil {
		return ReplenishResult{}, err
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return ReplenishResult{}, fmt.Errorf("begin replenish: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := tx.LockWallet(ctx, input.WalletID, input.Currency)
	if err != nil {
		return ReplenishResult{}, err
	}

	amount := money.New(input.Amount, input.Currency)
	newBalance, err := w.Balance.Add(amount)
	if err != nil {
		return ReplenishResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if newBalance.GreaterThan(e.maxAmount) {
		return ReplenishResult{}, &MaxAmountExceededError{
			WalletID:      w.ID,
			MaxAmount:     e.maxAmount,
			CurrentAmount: w.Balance.Amount,
		}
	}

	if err := tx.ApplyDelta(ctx, w.ID, input.Amount); err != nil {
		return ReplenishResult{}, fmt.Errorf("credit wallet %s: %w", w.ID, err)
	}

	txID, err := tx.RecordTransaction(ctx, KindReplenish, []Posting{
		{WalletID: w.ID, Value: amount},
	})
	if err != nil {
		return ReplenishResult{}, fmt.Errorf("record replenish: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ReplenishResult{}, fmt.Errorf("commit replenish: %w", err)
	}

	return ReplenishResult{
		TransactionID: txID,
		WalletID:      w.ID,
		Balance:       newBalance.Amount,
		Currency:      newBalance.Currency,
	}, nil
}

type walletRef struct {
	ID       uuid.UUID
	Currency money.Currency
}

func (in TransferInput) validate() error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidRequest, in.Amount)
	}
	if !in.FromCurrency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, in.FromCurrency)
	}
	if !in.ToCurrency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, in.ToCurrency)
	}
	if in.FromCurrency != in.ToCurrency {
		return fmt.Errorf("%w: transfer currencies must match, got %s and %s", ErrInvalidRequest, in.FromCurrency, in.ToCurrency)
	}
	if in.FromWalletID == uuid.Nil || in.ToWalletID == uuid.Nil {
		return fmt.Errorf("%w: wallet id is required", ErrInvalidRequest)
	}
	if in.FromWalletID == in.ToWalletID {
		return fmt.Errorf("%w: source and destination wallets must differ", ErrInvalidRequest)
	}
	return nil
}

func (in ReplenishInput) validate() error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidRequest, in.Amount)
	}
	if !in.Currency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, in.Currency)
	}
	if in.WalletID == uuid.Nil {
		return fmt.Errorf("%w: wallet id is required", ErrInvalidRequest)
	}
	return nil
}
