package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

// PostgresStore runs units of work as PostgreSQL transactions; wallet row
// locks come from SELECT ... FOR UPDATE and live until commit/rollback.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Begin opens a new database transaction.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockWallet(ctx context.Context, walletID uuid.UUID, currency money.Currency) (Wallet, error) {
	const query = `SELECT id, account_id, balance FROM wallets
        WHERE id = $1 AND currency = $2 FOR UPDATE`

	var w Wallet
	var balance decimal.Decimal
	if err := t.tx.QueryRow(ctx, query, walletID, string(currency)).Scan(&w.ID, &w.AccountID, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, &WalletNotFoundError{WalletID: walletID, Currency: currency}
		}
		return Wallet{}, fmt.Errorf("lock wallet %s: %w", walletID, err)
	}
	w.Balance = money.New(balance, currency)
	return w, nil
}

func (t *postgresTx) ApplyDelta(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = balance + $2 WHERE id = $1`, walletID, delta)
	return err
}

func (t *postgresTx) RecordTransaction(ctx context.Context, kind Kind, postings []Posting) (uuid.UUID, error) {
	if err := checkPostings(kind, postings); err != nil {
		return uuid.Nil, err
	}

	txID := uuid.New()
	if _, err := t.tx.Exec(ctx, `INSERT INTO transactions (id, kind, created_at) VALUES ($1, $2, $3)`,
		txID, string(kind), time.Now().UTC()); err != nil {
		return uuid.Nil, fmt.Errorf("insert transaction: %w", err)
	}

	for _, p := range postings {
		if _, err := t.tx.Exec(ctx, `INSERT INTO postings (id, transaction_id, wallet_id, currency, amount)
            VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), txID, p.WalletID, string(p.Value.Currency), p.Value.Amount); err != nil {
			return uuid.Nil, fmt.Errorf("insert posting for wallet %s: %w", p.WalletID, err)
		}
	}

	return txID, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
