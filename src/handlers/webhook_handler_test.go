package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-link-server/src/db"
	"finance-link-server/src/models"
)

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(ctx context.Context, body []byte, header http.Header) error {
	return s.err
}

func TestPlaidWebhookInvalidatesCache(t *testing.T) {
	gw := &stubGateway{}
	cache := newCache(t)
	store := db.NewMemoryStore()
	ctx := context.Background()
	store.SavePlaidItem(ctx, models.PlaidItem{ItemID: "item-1", AccessToken: "access-sandbox-1"})
	cache.RegisterItem("item-1", "access-sandbox-1")

	accounts := GetAccounts(gw, cache, store)
	do(t, accounts, http.MethodPost, "/api/accounts", `{"access_token":"access-sandbox-1"}`)

	hook := PlaidWebhook(stubVerifier{}, cache, store)
	rec := do(t, hook, http.MethodPost, "/api/plaid/webhook",
		`{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	do(t, accounts, http.MethodPost, "/api/accounts", `{"access_token":"access-sandbox-1"}`)
	if gw.accountCalls != 2 {
		t.Errorf("Plaid called %d times, want 2 after invalidation", gw.accountCalls)
	}
	if status, _ := store.ItemStatus("item-1"); status != "login_required" {
		t.Errorf("item status = %q, want login_required", status)
	}
}

func TestPlaidWebhookRejectsUnverified(t *testing.T) {
	hook := PlaidWebhook(stubVerifier{err: errors.New("bad signature")}, newCache(t), db.NewMemoryStore())
	req := httptest.NewRequest(http.MethodPost, "/api/plaid/webhook", strings.NewReader(`{"webhook_type":"TRANSACTIONS","item_id":"item-1"}`))
	rec := httptest.NewRecorder()
	hook.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPlaidWebhookRejectsMalformed(t *testing.T) {
	hook := PlaidWebhook(stubVerifier{}, newCache(t), db.NewMemoryStore())
	if rec := do(t, hook, http.MethodPost, "/api/plaid/webhook", `{"webhook_code":"X"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
