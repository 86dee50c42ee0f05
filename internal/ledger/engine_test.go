package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/money"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func newTestEngine(t *testing.T) (*Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	engine := NewEngine(store, Config{MaxAmount: dec(t, "10000000")})
	return engine, store
}

func seedUSD(t *testing.T, store *MemoryStore, balance string) uuid.UUID {
	t.Helper()
	walletID := uuid.New()
	SeedWallet(store, walletID, uuid.New(), dec(t, balance), money.USD)
	return walletID
}

func balanceOf(t *testing.T, store *MemoryStore, walletID uuid.UUID) decimal.Decimal {
	t.Helper()
	w, ok := store.GetWallet(walletID)
	if !ok {
		t.Fatalf("wallet %s not found in store", walletID)
	}
	return w.Balance.Amount
}

func TestTransferMovesExactAmounts(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "9999999.12")
	to := seedUSD(t, store, "12.12")

	res, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: from,
		FromCurrency: money.USD,
		ToWalletID:   to,
		ToCurrency:   money.USD,
		Amount:       dec(t, "789.98"),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if res.FromBalance.String() != "9999209.14" {
		t.Fatalf("expected source balance 9999209.14, got %s", res.FromBalance)
	}
	if res.ToBalance.String() != "802.1" {
		t.Fatalf("expected destination balance 802.10, got %s", res.ToBalance)
	}
	if res.FromCurrency != money.USD || res.ToCurrency != money.USD {
		t.Fatalf("unexpected currencies: %+v", res)
	}
	if !balanceOf(t, store, from).Equal(dec(t, "9999209.14")) {
		t.Fatalf("stored source balance wrong: %s", balanceOf(t, store, from))
	}
	if !balanceOf(t, store, to).Equal(dec(t, "802.10")) {
		t.Fatalf("stored destination balance wrong: %s", balanceOf(t, store, to))
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 recorded transaction, got %d", len(records))
	}
	rec := records[0]
	if rec.Transaction.Kind != KindTransfer {
		t.Fatalf("expected transfer kind, got %s", rec.Transaction.Kind)
	}
	if rec.Transaction.ID != res.TransactionID {
		t.Fatalf("result transaction id does not match record")
	}
	if len(rec.Postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(rec.Postings))
	}
	if rec.Postings[0].WalletID != from || !rec.Postings[0].Value.Amount.Equal(dec(t, "-789.98")) {
		t.Fatalf("unexpected source posting: %+v", rec.Postings[0])
	}
	if rec.Postings[1].WalletID != to || !rec.Postings[1].Value.Amount.Equal(dec(t, "789.98")) {
		t.Fatalf("unexpected destination posting: %+v", rec.Postings[1])
	}
	sum := rec.Postings[0].Value.Amount.Add(rec.Postings[1].Value.Amount)
	if !sum.IsZero() {
		t.Fatalf("postings do not balance: %s", sum)
	}
}

func TestTransferDestinationAtCeiling(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "9999999.12")
	to := seedUSD(t, store, "10000000")

	_, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: from,
		FromCurrency: money.USD,
		ToWalletID:   to,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	})

	var maxErr *MaxAmountExceededError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected MaxAmountExceededError, got %v", err)
	}
	if maxErr.WalletID != to {
		t.Fatalf("error should name the destination wallet, got %s", maxErr.WalletID)
	}
	if !maxErr.MaxAmount.Equal(dec(t, "10000000")) || !maxErr.CurrentAmount.Equal(dec(t, "10000000")) {
		t.Fatalf("unexpected error amounts: %+v", maxErr)
	}

	if !balanceOf(t, store, from).Equal(dec(t, "9999999.12")) || !balanceOf(t, store, to).Equal(dec(t, "10000000")) {
		t.Fatal("balances changed after failed transfer")
	}
	if len(store.Records()) != 0 {
		t.Fatal("failed transfer recorded a transaction")
	}
}

func TestTransferCapacityCheckedBeforeSufficiency(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// Source would underflow and destination would overflow; the overflow
	// must be reported.
	from := seedUSD(t, store, "0")
	to := seedUSD(t, store, "10000000")

	_, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: from,
		FromCurrency: money.USD,
		ToWalletID:   to,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	})

	var maxErr *MaxAmountExceededError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected MaxAmountExceededError, got %v", err)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "0")
	to := seedUSD(t, store, "12.12")

	_, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: from,
		FromCurrency: money.USD,
		ToWalletID:   to,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	})

	var fundsErr *InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if fundsErr.WalletID != from || !fundsErr.Amount.Equal(dec(t, "1")) || fundsErr.Currency != money.USD {
		t.Fatalf("unexpected error fields: %+v", fundsErr)
	}

	if !balanceOf(t, store, from).IsZero() || !balanceOf(t, store, to).Equal(dec(t, "12.12")) {
		t.Fatal("balances changed after failed transfer")
	}
	if len(store.Records()) != 0 {
		t.Fatal("failed transfer recorded a transaction")
	}
}

func TestTransferWalletNotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	missing := uuid.New()
	existing := seedUSD(t, store, "100")

	_, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: missing,
		FromCurrency: money.USD,
		ToWalletID:   existing,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	})
	var notFound *WalletNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected WalletNotFoundError, got %v", err)
	}
	if notFound.WalletID != missing || notFound.Currency != money.USD {
		t.Fatalf("unexpected error fields: %+v", notFound)
	}

	_, err = engine.Transfer(ctx, TransferInput{
		FromWalletID: existing,
		FromCurrency: money.USD,
		ToWalletID:   missing,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	})
	if !errors.As(err, &notFound) {
		t.Fatalf("expected WalletNotFoundError, got %v", err)
	}
	if notFound.WalletID != missing {
		t.Fatalf("error should name the missing destination, got %s", notFound.WalletID)
	}

	if !balanceOf(t, store, existing).Equal(dec(t, "100")) {
		t.Fatal("existing wallet balance changed")
	}
	if len(store.Records()) != 0 {
		t.Fatal("failed transfer recorded a transaction")
	}
}

func TestTransferCurrencyMismatchIsNotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "100")
	to := seedUSD(t, store, "0")

	// The source wallet stores USD; asking for it in EUR is a miss, not a
	// conversion request.
	_, err := engine.Transfer(ctx, TransferInput{
		FromWalletID: from,
		FromCurrency: money.EUR,
		ToWalletID:   to,
		ToCurrency:   money.EUR,
		Amount:       dec(t, "1"),
	})
	var notFound *WalletNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected WalletNotFoundError, got %v", err)
	}
	if notFound.Currency != money.EUR {
		t.Fatalf("expected EUR in error, got %s", notFound.Currency)
	}
}

func TestTransferInvalidRequests(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "100")
	to := seedUSD(t, store, "0")

	cases := []struct {
		name  string
		input TransferInput
	}{
		{"zero amount", TransferInput{FromWalletID: from, FromCurrency: money.USD, ToWalletID: to, ToCurrency: money.USD, Amount: decimal.Zero}},
		{"negative amount", TransferInput{FromWalletID: from, FromCurrency: money.USD, ToWalletID: to, ToCurrency: money.USD, Amount: dec(t, "-5")}},
		{"unknown currency", TransferInput{FromWalletID: from, FromCurrency: "XAF", ToWalletID: to, ToCurrency: "XAF", Amount: dec(t, "1")}},
		{"mixed currencies", TransferInput{FromWalletID: from, FromCurrency: money.USD, ToWalletID: to, ToCurrency: money.EUR, Amount: dec(t, "1")}},
		{"self transfer", TransferInput{FromWalletID: from, FromCurrency: money.USD, ToWalletID: from, ToCurrency: money.USD, Amount: dec(t, "1")}},
		{"nil wallet id", TransferInput{FromCurrency: money.USD, ToWalletID: to, ToCurrency: money.USD, Amount: dec(t, "1")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Transfer(ctx, tc.input)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	if len(store.Records()) != 0 {
		t.Fatal("invalid request recorded a transaction")
	}
	if !balanceOf(t, store, from).Equal(dec(t, "100")) {
		t.Fatal("balance changed after invalid requests")
	}
}

func TestFailedTransferIsRepeatable(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	from := seedUSD(t, store, "0")
	to := seedUSD(t, store, "12.12")
	input := TransferInput{
		FromWalletID: from,
		FromCurrency: money.USD,
		ToWalletID:   to,
		ToCurrency:   money.USD,
		Amount:       dec(t, "1"),
	}

	_, first := engine.Transfer(ctx, input)
	_, second := engine.Transfer(ctx, input)
	if first == nil || second == nil {
		t.Fatal("expected both attempts to fail")
	}
	if first.Error() != second.Error() {
		t.Fatalf("retry produced a different error: %q vs %q", first, second)
	}
	if !balanceOf(t, store, from).IsZero() || !balanceOf(t, store, to).Equal(dec(t, "12.12")) {
		t.Fatal("balances changed across failed retries")
	}
}

func TestReplenishCreditsWallet(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	walletID := seedUSD(t, store, "9999.12")

	res, err := engine.Replenish(ctx, ReplenishInput{
		WalletID: walletID,
		Amount:   dec(t, "789.98"),
		Currency: money.USD,
	})
	if err != nil {
		t.Fatalf("replenish: %v", err)
	}

	if !res.Balance.Equal(dec(t, "10789.10")) {
		t.Fatalf("unexpected balance %s", res.Balance)
	}
	if res.Currency != money.USD || res.WalletID != walletID {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec, ok := store.LastRecord()
	if !ok {
		t.Fatal("no transaction recorded")
	}
	if rec.Transaction.Kind != KindReplenish {
		t.Fatalf("expected replenish kind, got %s", rec.Transaction.Kind)
	}
	if len(rec.Postings) != 1 {
		t.Fatalf("expected a single posting, got %d", len(rec.Postings))
	}
	p := rec.Postings[0]
	if p.WalletID != walletID || !p.Value.Amount.Equal(dec(t, "789.98")) || p.Value.Currency != money.USD {
		t.Fatalf("unexpected posting: %+v", p)
	}
}

func TestReplenishAtCeiling(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	walletID := seedUSD(t, store, "10000000")

	_, err := engine.Replenish(ctx, ReplenishInput{
		WalletID: walletID,
		Amount:   dec(t, "1"),
		Currency: money.USD,
	})
	var maxErr *MaxAmountExceededError
	if !errors.As(err, &maxErr) {
		t.Fatalf("expected MaxAmountExceededError, got %v", err)
	}
	if !balanceOf(t, store, walletID).Equal(dec(t, "10000000")) {
		t.Fatal("balance changed after failed replenish")
	}
	if len(store.Records()) != 0 {
		t.Fatal("failed replenish recorded a transaction")
	}
}

func TestReplenishWalletNotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	missing := uuid.New()
	_, err := engine.Replenish(ctx, ReplenishInput{
		WalletID: missing,
		Amount:   dec(t, "1"),
		Currency: money.USD,
	})
	var notFound *WalletNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected WalletNotFoundError, got %v", err)
	}
	if notFound.WalletID != missing || notFound.Currency != money.USD {
		t.Fatalf("unexpected error fields: %+v", notFound)
	}
	if len(store.Records()) != 0 {
		t.Fatal("failed replenish recorded a transaction")
	}
}

func TestReplenishInvalidRequest(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Replenish(ctx, ReplenishInput{WalletID: uuid.New(), Amount: decimal.Zero, Currency: money.USD})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for zero amount, got %v", err)
	}

	_, err = engine.Replenish(ctx, ReplenishInput{WalletID: uuid.New(), Amount: dec(t, "1"), Currency: "BTC"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown currency, got %v", err)
	}
}

func TestConcurrentTransfersDrainSource(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	const n = 32
	amount := dec(t, "25.25")
	total := amount.Mul(decimal.NewFromInt(n))

	source := uuid.New()
	SeedWallet(store, source, uuid.New(), total, money.USD)

	dests := make([]uuid.UUID, n)
	for i := range dests {
		dests[i] = seedUSD(t, store, "0")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Transfer(ctx, TransferInput{
				FromWalletID: source,
				FromCurrency: money.USD,
				ToWalletID:   dests[i],
				ToCurrency:   money.USD,
				Amount:       amount,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("transfer %d failed: %v", i, err)
		}
	}

	if !balanceOf(t, store, source).IsZero() {
		t.Fatalf("source should be drained to zero, got %s", balanceOf(t, store, source))
	}
	for _, dest := range dests {
		if !balanceOf(t, store, dest).Equal(amount) {
			t.Fatalf("destination balance wrong: %s", balanceOf(t, store, dest))
		}
	}
	if len(store.Records()) != n {
		t.Fatalf("expected %d recorded transactions, got %d", n, len(store.Records()))
	}
}

func TestOppositeDirectionTransfers(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	a := seedUSD(t, store, "100")
	b := seedUSD(t, store, "100")

	var wg sync.WaitGroup
	run := func(from, to uuid.UUID) {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := engine.Transfer(ctx, TransferInput{
				FromWalletID: from,
				FromCurrency: money.USD,
				ToWalletID:   to,
				ToCurrency:   money.USD,
				Amount:       dec(t, "1"),
			}); err != nil {
				t.Errorf("transfer %s -> %s: %v", from, to, err)
				return
			}
		}
	}
	wg.Add(2)
	go run(a, b)
	go run(b, a)
	wg.Wait()

	if !balanceOf(t, store, a).Equal(dec(t, "100")) || !balanceOf(t, store, b).Equal(dec(t, "100")) {
		t.Fatalf("symmetric transfers should leave balances unchanged: a=%s b=%s",
			balanceOf(t, store, a), balanceOf(t, store, b))
	}
}
