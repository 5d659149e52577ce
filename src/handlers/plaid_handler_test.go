package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-link-server/src/db"
	"finance-link-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type stubGateway struct {
	fail             bool
	accountCalls     int
	transactionCalls int
	lastClientUserID string
}

var errUpstream = errors.New("plaid unavailable")

func (s *stubGateway) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	s.lastClientUserID = clientUserID
	if s.fail {
		return "", errUpstream
	}
	return "link-sandbox-1", nil
}

func (s *stubGateway) ExchangePublicToken(ctx context.Context, publicToken string) (models.ExchangeResult, error) {
	if s.fail || publicToken != "public-sandbox-1" {
		return models.ExchangeResult{}, errUpstream
	}
	return models.ExchangeResult{AccessToken: "access-sandbox-1", ItemID: "item-1"}, nil
}

func (s *stubGateway) Institution(ctx context.Context, accessToken string) (string, error) {
	return "ins_109508", nil
}

func (s *stubGateway) Accounts(ctx context.Context, accessToken string) ([]models.Account, error) {
	s.accountCalls++
	if s.fail {
		return nil, errUpstream
	}
	return []models.Account{{
		ID:       "acc-1",
		Name:     "Plaid Checking",
		Subtype:  "checking",
		Balances: models.NewBalances(decimal.NewFromInt(100), decimal.NewFromInt(110)),
	}}, nil
}

func (s *stubGateway) Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error) {
	s.transactionCalls++
	if s.fail {
		return models.TransactionsResponse{}, errUpstream
	}
	return models.TransactionsResponse{
		Accounts: map[string]models.Account{"acc-1": {ID: "acc-1", Name: "Plaid Checking"}},
		Transactions: []models.Transaction{
			{AccountID: "acc-1", Amount: decimal.RequireFromString("12.50"), Categories: []string{"FOOD_AND_DRINK"}, Date: "2024-01-02", Name: "Cafe"},
			{AccountID: "acc-1", Amount: decimal.RequireFromString("40"), Categories: []string{"TRAVEL", "TRAVEL_FLIGHTS"}, Date: "2024-01-03", Name: "Airline"},
			{AccountID: "acc-1", Amount: decimal.RequireFromString("7.50"), Categories: []string{"FOOD_AND_DRINK"}, Date: "2024-01-04", Name: "Bakery"},
			{AccountID: "acc-1", Amount: decimal.RequireFromString("1"), Date: "2024-01-05", Name: "Unknown"},
		},
	}, nil
}

func (s *stubGateway) SandboxPublicToken(ctx context.Context, institutionID string) (string, error) {
	if s.fail {
		return "", errUpstream
	}
	return "public-sandbox-1", nil
}

func newCache(t *testing.T) *db.Cache {
	t.Helper()
	cache, err := db.NewCache(time.Minute)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateLinkToken(t *testing.T) {
	gw := &stubGateway{}

	rec := do(t, CreateLinkToken(gw), http.MethodPost, "/api/create_link_token", `{"client_user_id":"session-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["link_token"] != "link-sandbox-1" {
		t.Errorf("link_token = %q", resp["link_token"])
	}
	if gw.lastClientUserID != "session-1" {
		t.Errorf("client_user_id = %q, want session-1", gw.lastClientUserID)
	}

	// No body: a fresh client user id is generated.
	rec = do(t, CreateLinkToken(gw), http.MethodPost, "/api/create_link_token", "")
	if rec.Code != http.StatusOK || gw.lastClientUserID == "" || gw.lastClientUserID == "session-1" {
		t.Errorf("empty body: status %d, client_user_id %q", rec.Code, gw.lastClientUserID)
	}

	rec = do(t, CreateLinkToken(&stubGateway{fail: true}), http.MethodPost, "/api/create_link_token", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure status = %d, want 502", rec.Code)
	}
}

func TestSetAccessToken(t *testing.T) {
	gw := &stubGateway{}
	store := db.NewMemoryStore()
	h := SetAccessToken(gw, newCache(t), store)

	rec := do(t, h, http.MethodPost, "/api/set_access_token", `{"public_token":"public-sandbox-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var res models.ExchangeResult
	json.NewDecoder(rec.Body).Decode(&res)
	if res.AccessToken != "access-sandbox-1" || res.ItemID != "item-1" {
		t.Errorf("unexpected exchange result %+v", res)
	}
	if status, ok := store.ItemStatus("item-1"); !ok || status != "active" {
		t.Errorf("item not saved: %q %v", status, ok)
	}

	for _, body := range []string{`{}`, `{"public_token":"bad token"}`, `not json`} {
		if rec := do(t, h, http.MethodPost, "/api/set_access_token", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}

	if rec := do(t, h, http.MethodPost, "/api/set_access_token", `{"public_token":"public-other"}`); rec.Code != http.StatusBadGateway {
		t.Errorf("failed exchange status = %d, want 502", rec.Code)
	}
}

func TestGetAccountsCachesAndPersists(t *testing.T) {
	gw := &stubGateway{}
	store := db.NewMemoryStore()
	cache := newCache(t)
	ctx := context.Background()
	store.SavePlaidItem(ctx, models.PlaidItem{ItemID: "item-1", AccessToken: "access-sandbox-1"})

	h := GetAccounts(gw, cache, store)
	for _, req := range []struct{ method, target, body string }{
		{http.MethodPost, "/api/accounts", `{"access_token":"access-sandbox-1"}`},
		{http.MethodGet, "/api/accounts?access_token=access-sandbox-1", ""},
	} {
		rec := do(t, h, req.method, req.target, req.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d: %s", req.method, rec.Code, rec.Body)
		}
		var resp models.AccountsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Accounts) != 1 || resp.Accounts[0].ID != "acc-1" {
			t.Errorf("unexpected accounts %+v", resp.Accounts)
		}
	}

	if gw.accountCalls != 1 {
		t.Errorf("Plaid called %d times, want 1", gw.accountCalls)
	}
	if got := store.Accounts("item-1"); len(got) != 1 {
		t.Errorf("snapshot not saved: %+v", got)
	}
}

func TestGetAccountsRequiresToken(t *testing.T) {
	h := GetAccounts(&stubGateway{}, newCache(t), db.NewMemoryStore())
	if rec := do(t, h, http.MethodPost, "/api/accounts", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/accounts", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetAccountsUpstreamFailure(t *testing.T) {
	h := GetAccounts(&stubGateway{fail: true}, newCache(t), db.NewMemoryStore())
	if rec := do(t, h, http.MethodPost, "/api/accounts", `{"access_token":"access-sandbox-1"}`); rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestGetTransactions(t *testing.T) {
	gw := &stubGateway{}
	rec := do(t, GetTransactions(gw, newCache(t)), http.MethodPost, "/api/transactions", `{"access_token":"access-sandbox-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp models.TransactionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp.Accounts["acc-1"]; !ok {
		t.Errorf("accounts not keyed by id: %+v", resp.Accounts)
	}
	if len(resp.Transactions) != 4 {
		t.Fatalf("got %d transactions", len(resp.Transactions))
	}
	last := resp.Transactions[3]
	if len(last.Categories) != 1 || last.Categories[0] != models.Uncategorized {
		t.Errorf("empty categories not normalized: %v", last.Categories)
	}
}

func TestGetSummaryChart(t *testing.T) {
	gw := &stubGateway{}
	cache := newCache(t)

	// Transactions fetched once serve both endpoints.
	do(t, GetTransactions(gw, cache), http.MethodPost, "/api/transactions", `{"access_token":"access-sandbox-1"}`)
	rec := do(t, GetSummaryChart(gw, cache), http.MethodPost, "/api/chart/summary", `{"access_token":"access-sandbox-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if gw.transactionCalls != 1 {
		t.Errorf("Plaid called %d times, want 1", gw.transactionCalls)
	}

	var chart models.ChartDataset
	if err := json.NewDecoder(rec.Body).Decode(&chart); err != nil {
		t.Fatal(err)
	}
	wantLabels := []string{"TRAVEL", "FOOD_AND_DRINK", models.Uncategorized}
	if strings.Join(chart.Labels, ",") != strings.Join(wantLabels, ",") {
		t.Errorf("labels = %v, want %v", chart.Labels, wantLabels)
	}
	if len(chart.Datasets) != 1 || chart.Datasets[0].Data[0] != 40 || chart.Datasets[0].Data[1] != 20 {
		t.Errorf("unexpected datasets %+v", chart.Datasets)
	}
}

func TestSandboxPublicToken(t *testing.T) {
	h := SandboxPublicToken(&stubGateway{})
	rec := do(t, h, http.MethodPost, "/api/sandbox/public_token", `{"institution_id":"ins_109508"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "public-sandbox-1") {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/api/sandbox/public_token", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing institution status = %d, want 400", rec.Code)
	}
}

func TestClearCache(t *testing.T) {
	gw := &stubGateway{}
	cache := newCache(t)
	store := db.NewMemoryStore()
	token := `{"access_token":"access-sandbox-1"}`

	r := chi.NewRouter()
	r.Post("/clear/{cache_name}", ClearCache(cache))
	clear := func(name string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clear/"+name, nil))
		return rec.Code
	}

	do(t, GetAccounts(gw, cache, store), http.MethodPost, "/api/accounts", token)
	do(t, GetTransactions(gw, cache), http.MethodPost, "/api/transactions", token)

	if code := clear("transactions"); code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", code)
	}
	do(t, GetAccounts(gw, cache, store), http.MethodPost, "/api/accounts", token)
	do(t, GetTransactions(gw, cache), http.MethodPost, "/api/transactions", token)
	if gw.accountCalls != 1 || gw.transactionCalls != 2 {
		t.Errorf("calls after clearing transactions: accounts %d, transactions %d", gw.accountCalls, gw.transactionCalls)
	}

	if code := clear("all"); code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", code)
	}
	do(t, GetAccounts(gw, cache, store), http.MethodPost, "/api/accounts", token)
	if gw.accountCalls != 2 {
		t.Errorf("accounts still cached after clearing all")
	}

	if code := clear("summary"); code != http.StatusNotFound {
		t.Errorf("unknown cache status = %d, want 404", code)
	}
}
