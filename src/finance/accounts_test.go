package finance

import (
	"context"
	"errors"
	"testing"

	"finance-link-server/src/logger"
	"finance-link-server/src/models"

	"github.com/shopspring/decimal"
)

func TestAccountDirectoryFetch(t *testing.T) {
	backend := &stubBackend{accounts: []models.Account{
		account("acc-1", "Checking", 50, 60),
		account("acc-2", "Savings", 500, 500),
	}}
	dir := NewAccountDirectory(backend, logger.Nop())

	res, err := dir.Fetch(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Status != Real || res.Err != nil {
		t.Fatalf("expected real result, got %v (%v)", res.Status, res.Err)
	}
	if len(res.Data.Accounts) != 2 || len(res.Data.ByID) != 2 {
		t.Fatalf("unexpected account set: %+v", res.Data)
	}
	acc, err := dir.Lookup("acc-2")
	if err != nil || acc.Name != "Savings" {
		t.Fatalf("Lookup(acc-2) = %+v, %v", acc, err)
	}
}

func TestAccountDirectoryEmptyTokenMakesNoRequest(t *testing.T) {
	backend := &stubBackend{}
	dir := NewAccountDirectory(backend, logger.Nop())

	_, err := dir.Fetch(context.Background(), "")
	if !errors.Is(err, models.ErrEmptyAccessToken) {
		t.Fatalf("expected empty token error, got %v", err)
	}
	if !errors.Is(err, models.ErrAccountFetchFailed) {
		t.Fatalf("expected AccountFetchFailed kind, got %v", err)
	}
	if backend.accountCalls != 0 {
		t.Fatalf("expected no network call, got %d", backend.accountCalls)
	}
}

func TestAccountDirectoryFallback(t *testing.T) {
	backend := &stubBackend{accountsErr: errNetwork}
	dir := NewAccountDirectory(backend, logger.Nop())

	res, err := dir.Fetch(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Status != Fallback {
		t.Fatalf("status = %v, want Fallback", res.Status)
	}
	if !errors.Is(res.Err, models.ErrAccountFetchFailed) || !errors.Is(res.Err, errNetwork) {
		t.Fatalf("unexpected fallback error: %v", res.Err)
	}

	want := []struct {
		name               string
		available, current int64
	}{
		{"Name1", 100, 110},
		{"Name2", 200, 220},
	}
	if len(res.Data.Accounts) != len(want) {
		t.Fatalf("got %d fallback accounts, want %d", len(res.Data.Accounts), len(want))
	}
	for i, w := range want {
		acc := res.Data.Accounts[i]
		if acc.Name != w.name ||
			!acc.Balances.Available.Decimal.Equal(decimal.NewFromInt(w.available)) ||
			!acc.Balances.Current.Decimal.Equal(decimal.NewFromInt(w.current)) {
			t.Errorf("account %d = %+v, want %s %d/%d", i, acc, w.name, w.available, w.current)
		}
	}
	if _, err := dir.Lookup(res.Data.Accounts[0].ID); err != nil {
		t.Errorf("fallback accounts not indexed: %v", err)
	}
}

func TestAccountDirectoryRebuildsOnEachFetch(t *testing.T) {
	backend := &stubBackend{accounts: []models.Account{account("old", "Old", 1, 1)}}
	dir := NewAccountDirectory(backend, logger.Nop())
	ctx := context.Background()

	if _, err := dir.Fetch(ctx, "access-1"); err != nil {
		t.Fatal(err)
	}
	backend.accounts = []models.Account{account("new", "New", 2, 2)}
	if _, err := dir.Fetch(ctx, "access-2"); err != nil {
		t.Fatal(err)
	}

	if _, err := dir.Lookup("old"); !errors.Is(err, models.ErrAccountLookupMiss) {
		t.Errorf("expected old account to be gone, got %v", err)
	}
	if _, err := dir.Lookup("new"); err != nil {
		t.Errorf("Lookup(new) = %v", err)
	}
	if got := dir.Accounts(); len(got) != 1 || got[0].ID != "new" {
		t.Errorf("Accounts() = %+v", got)
	}
}

func TestAccountDirectoryRejectsMalformed(t *testing.T) {
	backend := &stubBackend{accounts: []models.Account{
		account("", "No id", 1, 1),
		account("acc-1", "", 1, 1),
		account("acc-2", "Good", 1, 1),
	}}
	dir := NewAccountDirectory(backend, logger.Nop())

	res, err := dir.Fetch(context.Background(), "access-1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != Real {
		t.Errorf("status = %v", res.Status)
	}
	if len(res.Data.Accounts) != 1 || len(res.Data.Rejected) != 2 {
		t.Fatalf("accounts = %d, rejected = %d", len(res.Data.Accounts), len(res.Data.Rejected))
	}
}

func TestLookupMiss(t *testing.T) {
	dir := NewAccountDirectory(&stubBackend{}, logger.Nop())
	_, err := dir.Lookup("missing")
	if !errors.Is(err, models.ErrAccountLookupMiss) {
		t.Fatalf("expected AccountLookupMiss, got %v", err)
	}
}
