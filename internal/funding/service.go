package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/ledger"
	"github.com/opal-pay/opal_pay/internal/money"
	"github.com/opal-pay/opal_pay/internal/notification"
)

// Service coordinates wallet top-ups: provider authorization first, then the
// single-wallet credit through the engine.
type Service struct {
	engine   *ledger.Engine
	provider Provider
	notifier notification.Notifier
}

// NewService prepares a funding service. A nil provider defaults to the
// static approval stub.
func NewService(engine *ledger.Engine, provider Provider, notifier notification.Notifier) *Service {
	if provider == nil {
		provider = StaticProvider{}
	}
	return &Service{engine: engine, provider: provider, notifier: notifier}
}

// ReplenishInput captures the data for a wallet top-up.
type ReplenishInput struct {
	WalletID  uuid.UUID
	Amount    decimal.Decimal
	Currency  money.Currency
	Reference string
}

// ReplenishResult is the committed outcome plus the provider reference.
type ReplenishResult struct {
	ledger.ReplenishResult
	ProviderReference string
	CompletedAt       time.Time
}

// Replenish authorizes the external top-up and credits the wallet. If the
// engine rejects the credit after authorization, no balance changes and no
// ledger rows are written.
func (s *Service) Replenish(ctx context.Context, input ReplenishInput) (ReplenishResult, error) {
	decision, err := s.provider.Authorize(ctx, Authorization{
		Reference: input.Reference,
		Amount:    input.Amount,
		Currency:  input.Currency,
	})
	if err != nil {
		return ReplenishResult{}, fmt.Errorf("authorize top-up: %w", err)
	}

	res, err := s.engine.Replenish(ctx, ledger.ReplenishInput{
		WalletID: input.WalletID,
		Amount:   input.Amount,
		Currency: input.Currency,
	})
	if err != nil {
		return ReplenishResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletReplenished,
			Destination: res.WalletID.String(),
			Body:        fmt.Sprintf("wallet %s replenished with %s %s", res.WalletID, input.Amount, input.Currency),
		})
	}

	return ReplenishResult{
		ReplenishResult:   res,
		ProviderReference: decision.Reference,
		CompletedAt:       time.Now().UTC(),
	}, nil
}
