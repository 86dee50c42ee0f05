package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/opal-pay/opal_pay/internal/ledger"
	"github.com/opal-pay/opal_pay/internal/notification"
)

// Service orchestrates wallet-to-wallet transfers over the ledger engine.
type Service struct {
	engine   *ledger.Engine
	notifier notification.Notifier
}

// NewService constructs a transfer service.
func NewService(engine *ledger.Engine, notifier notification.Notifier) *Service {
	return &Service{engine: engine, notifier: notifier}
}

// TransferResult is the committed outcome plus completion time.
type TransferResult struct {
	ledger.TransferResult
	CompletedAt time.Time
}

// Transfer moves money between two wallets and notifies the credited side.
// All validation and atomicity live in the engine; a failure here means no
// balance changed and no ledger rows were written.
func (s *Service) Transfer(ctx context.Context, input ledger.TransferInput) (TransferResult, error) {
	res, err := s.engine.Transfer(ctx, input)
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: res.ToWalletID.String(),
			Body:        fmt.Sprintf("received %s %s from wallet %s", input.Amount, input.FromCurrency, res.FromWalletID),
		})
	}

	return TransferResult{TransferResult: res, CompletedAt: time.Now().UTC()}, nil
}
