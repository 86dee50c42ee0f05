package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// Provider is the connector to the external source of replenished funds.
// Money entering through it is ledger-external by definition, which is why
// a replenish records a single unbalanced posting.
type Provider interface {
	Authorize(ctx context.Context, req Authorization) (Decision, error)
}

// Authorization captures the data sent to the provider for approval.
type Authorization struct {
	Reference string
	Amount    decimal.Decimal
	Currency  money.Currency
}

// Decision is the provider's response.
type Decision struct {
	Reference string
	Status    string
}

// StaticProvider simulates a provider that approves everything.
type StaticProvider struct{}

// Authorize approves the top-up with a synthetic reference.
func (StaticProvider) Authorize(_ context.Context, req Authorization) (Decision, error) {
	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	return Decision{Reference: reference, Status: "approved"}, nil
}
