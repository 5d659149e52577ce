package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"finance-link-server/src/db"
	"finance-link-server/src/finance"
	"finance-link-server/src/logger"
	"finance-link-server/src/models"
	"finance-link-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PlaidGateway is the slice of the Plaid API the handlers call.
type PlaidGateway interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (models.ExchangeResult, error)
	Institution(ctx context.Context, accessToken string) (string, error)
	Accounts(ctx context.Context, accessToken string) ([]models.Account, error)
	Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error)
}

// SandboxGateway can mint public tokens without the hosted widget.
type SandboxGateway interface {
	SandboxPublicToken(ctx context.Context, institutionID string) (string, error)
}

// ItemStore records linked items and their latest account snapshot.
type ItemStore interface {
	SavePlaidItem(ctx context.Context, item models.PlaidItem) error
	SaveAccounts(ctx context.Context, accessToken string, accounts []models.Account) error
	UpdateItemStatus(ctx context.Context, itemID, status string) error
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// accessTokenFrom reads access_token from the query string on GET and from
// the JSON body otherwise.
func accessTokenFrom(r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token"), nil
	}
	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeBody(r, &req); err != nil {
		return "", err
	}
	return req.AccessToken, nil
}

func CreateLinkToken(gw PlaidGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req struct {
			ClientUserID string `json:"client_user_id"`
		}
		if err := decodeBody(r, &req); err != nil {
			log.Error().Err(err).Msg("Failed to decode create link token request body")
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.ClientUserID == "" {
			req.ClientUserID = uuid.NewString()
		}
		if !util.ValidateIdentifier(req.ClientUserID) {
			http.Error(w, "invalid client_user_id", http.StatusBadRequest)
			return
		}

		linkToken, err := gw.CreateLinkToken(r.Context(), req.ClientUserID)
		if err != nil {
			http.Error(w, "Failed to create link token", http.StatusBadGateway)
			log.Error().Err(err).Str("client_user_id", req.ClientUserID).Msg("Plaid link token creation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"link_token": linkToken})
	}
}

func SetAccessToken(gw PlaidGateway, cache *db.Cache, store ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req struct {
			PublicToken  string `json:"public_token"`
			ClientUserID string `json:"client_user_id"`
		}
		if err := decodeBody(r, &req); err != nil {
			log.Error().Err(err).Msg("Failed to decode exchange public token request body")
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !util.ValidateToken(req.PublicToken) {
			http.Error(w, "public_token is required", http.StatusBadRequest)
			return
		}

		res, err := gw.ExchangePublicToken(r.Context(), req.PublicToken)
		if err != nil {
			http.Error(w, "Failed to exchange public token", http.StatusBadGateway)
			log.Error().Err(err).Msg("Plaid public token exchange failed")
			return
		}

		// Institution details are optional; the link still succeeds without them.
		institutionID, err := gw.Institution(r.Context(), res.AccessToken)
		if err != nil {
			log.Warn().Err(err).Str("item_id", res.ItemID).Msg("Failed to fetch item details")
		}

		item := models.PlaidItem{
			ItemID:        res.ItemID,
			ClientUserID:  req.ClientUserID,
			AccessToken:   res.AccessToken,
			InstitutionID: institutionID,
		}
		if err := store.SavePlaidItem(r.Context(), item); err != nil {
			http.Error(w, "Failed to save plaid item", http.StatusInternalServerError)
			log.Error().Err(err).Str("item_id", res.ItemID).Msg("Failed to save plaid item")
			return
		}
		cache.RegisterItem(res.ItemID, res.AccessToken)

		log.Info().Str("item_id", res.ItemID).Str("institution_id", institutionID).Msg("Successfully exchanged public token and saved plaid item")

		writeJSON(w, http.StatusOK, res)
	}
}

// fetchAccounts serves accounts from the cache, falling back to Plaid and
// refreshing the stored snapshot on a miss.
func fetchAccounts(ctx context.Context, gw PlaidGateway, cache *db.Cache, store ItemStore, accessToken string) ([]models.Account, error) {
	if accounts, ok := cache.GetAccounts(accessToken); ok {
		return accounts, nil
	}
	accounts, err := gw.Accounts(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	cache.SetAccounts(accessToken, accounts)
	if err := store.SaveAccounts(ctx, accessToken, accounts); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to save account snapshot")
	}
	return accounts, nil
}

func fetchTransactions(ctx context.Context, gw PlaidGateway, cache *db.Cache, accessToken string) (models.TransactionsResponse, error) {
	if resp, ok := cache.GetTransactions(accessToken); ok {
		return resp, nil
	}
	resp, err := gw.Transactions(ctx, accessToken)
	if err != nil {
		return models.TransactionsResponse{}, err
	}
	for i := range resp.Transactions {
		resp.Transactions[i].Categories = finance.NormalizeCategories(resp.Transactions[i].Categories)
	}
	cache.SetTransactions(accessToken, resp)
	return resp, nil
}

// requireAccessToken writes the error response itself and returns "" when the
// request carries no usable token.
func requireAccessToken(w http.ResponseWriter, r *http.Request) string {
	accessToken, err := accessTokenFrom(r)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to decode access token request body")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return ""
	}
	if !util.ValidateToken(accessToken) {
		http.Error(w, "access_token is required", http.StatusBadRequest)
		return ""
	}
	return accessToken
}

func GetAccounts(gw PlaidGateway, cache *db.Cache, store ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := requireAccessToken(w, r)
		if accessToken == "" {
			return
		}

		accounts, err := fetchAccounts(r.Context(), gw, cache, store, accessToken)
		if err != nil {
			http.Error(w, "Failed to fetch accounts from Plaid", http.StatusBadGateway)
			logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to fetch accounts")
			return
		}

		writeJSON(w, http.StatusOK, models.AccountsResponse{Accounts: accounts})
	}
}

func GetTransactions(gw PlaidGateway, cache *db.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := requireAccessToken(w, r)
		if accessToken == "" {
			return
		}

		resp, err := fetchTransactions(r.Context(), gw, cache, accessToken)
		if err != nil {
			http.Error(w, "Failed to fetch transactions from Plaid", http.StatusBadGateway)
			logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to fetch transactions")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func GetSummaryChart(gw PlaidGateway, cache *db.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := requireAccessToken(w, r)
		if accessToken == "" {
			return
		}

		resp, err := fetchTransactions(r.Context(), gw, cache, accessToken)
		if err != nil {
			http.Error(w, "Failed to build summary chart", http.StatusBadGateway)
			logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to fetch transactions for summary chart")
			return
		}

		writeJSON(w, http.StatusOK, finance.Summarize(resp.Transactions).Dataset())
	}
}

// ClearCache drops one kind of cached Plaid response, or all of them when the
// kind is "all".
func ClearCache(cache *db.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "cache_name")

		var kinds []string
		if kind == "all" {
			kinds = db.Kinds()
		} else if slices.Contains(db.Kinds(), kind) {
			kinds = []string{kind}
		} else {
			http.Error(w, "unknown cache", http.StatusNotFound)
			return
		}

		for _, k := range kinds {
			cache.ClearKind(k)
		}
		logger.FromContext(r.Context()).Info().Strs("caches", kinds).Msg("Cleared cache")

		w.WriteHeader(http.StatusNoContent)
	}
}

// SandboxPublicToken stands in for the hosted Link widget in sandbox runs.
func SandboxPublicToken(gw SandboxGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req struct {
			InstitutionID string `json:"institution_id"`
		}
		if err := decodeBody(r, &req); err != nil {
			log.Error().Err(err).Msg("Failed to decode sandbox public token request body")
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !util.ValidateIdentifier(req.InstitutionID) {
			http.Error(w, "institution_id is required", http.StatusBadRequest)
			return
		}

		publicToken, err := gw.SandboxPublicToken(r.Context(), req.InstitutionID)
		if err != nil {
			http.Error(w, "Failed to create sandbox public token", http.StatusBadGateway)
			log.Error().Err(err).Str("institution_id", req.InstitutionID).Msg("Plaid sandbox public token creation failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"public_token": publicToken})
	}
}
