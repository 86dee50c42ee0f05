package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// ErrInvalidRequest marks caller-input defects (non-positive amount,
// unknown currency, self-transfer). It is always detected before a unit of
// work begins; wrap it with detail via fmt.Errorf and %w.
var ErrInvalidRequest = errors.New("invalid request")

// WalletNotFoundError reports that no wallet row matches the requested
// (id, currency) pair.
type WalletNotFoundError struct {
	WalletID uuid.UUID
	Currency money.Currency
}

func (e *WalletNotFoundError) Error() string {
	return fmt.Sprintf("wallet %s (%s) not found", e.WalletID, e.Currency)
}

// MaxAmountExceededError reports that crediting a wallet would push its
// balance above the configured ceiling.
type MaxAmountExceededError struct {
	WalletID      uuid.UUID
	MaxAmount     decimal.Decimal
	CurrentAmount decimal.Decimal
}

func (e *MaxAmountExceededError) Error() string {
	return fmt.Sprintf("can't credit wallet %s: resulting amount is greater than max amount %s, current amount %s",
		e.WalletID, e.MaxAmount, e.CurrentAmount)
}

// InsufficientFundsError reports that debiting a wallet would push its
// balance below zero.
type InsufficientFundsError struct {
	WalletID uuid.UUID
	Amount   decimal.Decimal
	Currency money.Currency
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("can't debit %s %s from wallet %s: not enough funds",
		e.Amount, e.Currency, e.WalletID)
}
