package db

import (
	"testing"
	"time"

	"finance-link-server/src/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(time.Minute)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCacheAccountsRoundTrip(t *testing.T) {
	c := newTestCache(t)
	accounts := []models.Account{{ID: "acc-1", Name: "Checking"}}

	if _, ok := c.GetAccounts("access-1"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.SetAccounts("access-1", accounts)

	got, ok := c.GetAccounts("access-1")
	if !ok || len(got) != 1 || got[0].ID != "acc-1" {
		t.Fatalf("GetAccounts() = %+v, %v", got, ok)
	}
	if _, ok := c.GetAccounts("access-2"); ok {
		t.Error("entries must be scoped per access token")
	}
}

func TestCacheInvalidateItem(t *testing.T) {
	c := newTestCache(t)
	c.RegisterItem("item-1", "access-1")
	c.SetAccounts("access-1", []models.Account{{ID: "acc-1"}})
	c.SetTransactions("access-1", models.TransactionsResponse{})
	c.SetAccounts("access-2", []models.Account{{ID: "acc-2"}})

	if !c.InvalidateItem("item-1") {
		t.Fatal("expected item to be known")
	}
	if _, ok := c.GetAccounts("access-1"); ok {
		t.Error("accounts for item-1 still cached")
	}
	if _, ok := c.GetTransactions("access-1"); ok {
		t.Error("transactions for item-1 still cached")
	}
	if _, ok := c.GetAccounts("access-2"); !ok {
		t.Error("other items must be untouched")
	}
	if c.InvalidateItem("unknown") {
		t.Error("unknown item reported as known")
	}
}

func TestCacheClearKind(t *testing.T) {
	c := newTestCache(t)
	c.SetAccounts("access-1", []models.Account{{ID: "acc-1"}})
	c.SetTransactions("access-1", models.TransactionsResponse{})

	c.ClearKind(KindTransactions)

	if _, ok := c.GetTransactions("access-1"); ok {
		t.Error("transactions still cached")
	}
	if _, ok := c.GetAccounts("access-1"); !ok {
		t.Error("accounts must survive clearing transactions")
	}
}
