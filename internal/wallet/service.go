package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// Service provisions accounts with their wallets. Balances created here
// start at zero; only the ledger engine mutates them afterwards.
type Service struct {
	repo Repository
}

// NewService builds a provisioning service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the data required to open an account.
type CreateInput struct {
	Name     string
	Currency string
}

// Create opens an account together with a zero-balance wallet. An empty
// currency defaults to USD.
func (s *Service) Create(ctx context.Context, input CreateInput) (AccountWithWallet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return AccountWithWallet{}, fmt.Errorf("account name is required")
	}

	currency := money.USD
	if input.Currency != "" {
		parsed, err := money.ParseCurrency(input.Currency)
		if err != nil {
			return AccountWithWallet{}, err
		}
		currency = parsed
	}

	account := Account{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	wallet := Wallet{
		ID:        uuid.New(),
		AccountID: account.ID,
		Currency:  currency,
		Balance:   decimal.Zero,
	}

	if err := s.repo.CreateAccountWithWallet(ctx, account, wallet); err != nil {
		return AccountWithWallet{}, err
	}

	return AccountWithWallet{
		AccountID: account.ID,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
		WalletID:  wallet.ID,
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
	}, nil
}

// Get returns the account joined with its wallet.
func (s *Service) Get(ctx context.Context, accountID uuid.UUID) (AccountWithWallet, error) {
	return s.repo.GetAccountWithWallet(ctx, accountID)
}
