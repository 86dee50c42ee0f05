package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opal-pay/opal_pay/internal/money"
)

// ErrAccountNotFound indicates no account row matches the requested id.
var ErrAccountNotFound = errors.New("account not found")

// Repository persists account and wallet provisioning rows.
type Repository interface {
	CreateAccountWithWallet(ctx context.Context, account Account, wallet Wallet) error
	GetAccountWithWallet(ctx context.Context, accountID uuid.UUID) (AccountWithWallet, error)
}

// PostgresRepository stores accounts and wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAccountWithWallet inserts the account and its wallet in one
// transaction so a half-provisioned account is never observable.
func (r *PostgresRepository) CreateAccountWithWallet(ctx context.Context, account Account, wallet Wallet) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin provisioning tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO accounts (id, name, created_at) VALUES ($1, $2, $3)`,
		account.ID, account.Name, account.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, account_id, currency, balance) VALUES ($1, $2, $3, $4)`,
		wallet.ID, wallet.AccountID, string(wallet.Currency), wallet.Balance); err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	return tx.Commit(ctx)
}

// GetAccountWithWallet fetches the account joined with its wallet.
func (r *PostgresRepository) GetAccountWithWallet(ctx context.Context, accountID uuid.UUID) (AccountWithWallet, error) {
	const query = `SELECT a.id, a.name, a.created_at, w.id, w.currency, w.balance
        FROM accounts a JOIN wallets w ON w.account_id = a.id
        WHERE a.id = $1`

	var out AccountWithWallet
	var currency string
	row := r.db.QueryRow(ctx, query, accountID)
	if err := row.Scan(&out.AccountID, &out.Name, &out.CreatedAt, &out.WalletID, &currency, &out.Balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountWithWallet{}, ErrAccountNotFound
		}
		return AccountWithWallet{}, fmt.Errorf("select account %s: %w", accountID, err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.Currency = money.Currency(currency)
	return out, nil
}
