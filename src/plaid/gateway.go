package plaid

import (
	"context"
	"fmt"
	"time"

	"finance-link-server/src/models"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"
)

type GatewayConfig struct {
	ClientName   string
	Language     string
	Products     []string
	CountryCodes []string
	WebhookURL   string
	// LookbackDays bounds the transaction window ending today.
	LookbackDays int
}

// Gateway wraps the Plaid API calls the server needs and converts Plaid
// payloads into our models.
type Gateway struct {
	client *plaid.APIClient
	cfg    GatewayConfig
	now    func() time.Time
}

func NewGateway(client *plaid.APIClient, cfg GatewayConfig) *Gateway {
	return &Gateway{client: client, cfg: cfg, now: time.Now}
}

func (g *Gateway) products() []plaid.Products {
	products := make([]plaid.Products, 0, len(g.cfg.Products))
	for _, p := range g.cfg.Products {
		products = append(products, plaid.Products(p))
	}
	return products
}

func (g *Gateway) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	countryCodes := make([]plaid.CountryCode, 0, len(g.cfg.CountryCodes))
	for _, c := range g.cfg.CountryCodes {
		countryCodes = append(countryCodes, plaid.CountryCode(c))
	}
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: clientUserID,
	}
	request := plaid.NewLinkTokenCreateRequest(
		g.cfg.ClientName,
		g.cfg.Language,
		countryCodes,
		user,
	)
	request.SetProducts(g.products())
	if g.cfg.WebhookURL != "" {
		request.SetWebhook(g.cfg.WebhookURL)
	}

	resp, _, err := g.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("link token create: %w", err)
	}
	return resp.GetLinkToken(), nil
}

func (g *Gateway) ExchangePublicToken(ctx context.Context, publicToken string) (models.ExchangeResult, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := g.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return models.ExchangeResult{}, fmt.Errorf("item public token exchange: %w", err)
	}
	return models.ExchangeResult{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
	}, nil
}

// Institution returns the institution id of the item behind accessToken, or
// "" when Plaid does not report one.
func (g *Gateway) Institution(ctx context.Context, accessToken string) (string, error) {
	request := plaid.NewItemGetRequest(accessToken)
	resp, _, err := g.client.PlaidApi.ItemGet(ctx).ItemGetRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("item get: %w", err)
	}
	item := resp.GetItem()
	if item.InstitutionId.IsSet() && item.InstitutionId.Get() != nil {
		return *item.InstitutionId.Get(), nil
	}
	return "", nil
}

func (g *Gateway) Accounts(ctx context.Context, accessToken string) ([]models.Account, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := g.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("accounts get: %w", err)
	}
	return convertAccounts(resp.GetAccounts()), nil
}

const transactionsPageSize = 500

// Transactions pages through /transactions/get for the configured window.
func (g *Gateway) Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error) {
	end := g.now()
	start := end.AddDate(0, 0, -g.cfg.LookbackDays)

	out := models.TransactionsResponse{Accounts: map[string]models.Account{}}
	var offset int32
	for {
		options := plaid.NewTransactionsGetRequestOptions()
		options.SetCount(transactionsPageSize)
		options.SetOffset(offset)

		request := plaid.NewTransactionsGetRequest(accessToken, start.Format(time.DateOnly), end.Format(time.DateOnly))
		request.SetOptions(*options)

		resp, _, err := g.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			return models.TransactionsResponse{}, fmt.Errorf("transactions get (offset %d): %w", offset, err)
		}

		for _, acc := range convertAccounts(resp.GetAccounts()) {
			out.Accounts[acc.ID] = acc
		}
		page := resp.GetTransactions()
		for _, txn := range page {
			out.Transactions = append(out.Transactions, convertTransaction(txn))
		}

		offset += int32(len(page))
		if len(page) == 0 || offset >= resp.GetTotalTransactions() {
			break
		}
	}
	return out, nil
}

// SandboxPublicToken creates an item in the sandbox without the hosted widget.
func (g *Gateway) SandboxPublicToken(ctx context.Context, institutionID string) (string, error) {
	request := plaid.NewSandboxPublicTokenCreateRequest(institutionID, g.products())
	resp, _, err := g.client.PlaidApi.SandboxPublicTokenCreate(ctx).SandboxPublicTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("sandbox public token create: %w", err)
	}
	return resp.GetPublicToken(), nil
}

// VerificationKey fetches the JWK Plaid used to sign a webhook.
func (g *Gateway) VerificationKey(ctx context.Context, kid string) (*plaid.JWKPublicKey, error) {
	request := plaid.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := g.client.PlaidApi.WebhookVerificationKeyGet(ctx).WebhookVerificationKeyGetRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("webhook verification key get: %w", err)
	}
	key := resp.GetKey()
	return &key, nil
}

func convertAccounts(accounts []plaid.AccountBase) []models.Account {
	out := make([]models.Account, 0, len(accounts))
	for _, acc := range accounts {
		balances := acc.GetBalances()
		available, _ := balances.GetAvailableOk()
		current, _ := balances.GetCurrentOk()
		out = append(out, models.Account{
			ID:           acc.GetAccountId(),
			Name:         acc.GetName(),
			OfficialName: acc.GetOfficialName(),
			Subtype:      string(acc.GetSubtype()),
			Balances: models.Balances{
				Available: nullDecimal(available),
				Current:   nullDecimal(current),
			},
		})
	}
	return out
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

func convertTransaction(txn plaid.Transaction) models.Transaction {
	var categories []string
	if txn.HasPersonalFinanceCategory() {
		pfc := txn.GetPersonalFinanceCategory()
		categories = append(categories, pfc.GetPrimary(), pfc.GetDetailed())
	}
	return models.Transaction{
		AccountID:    txn.GetAccountId(),
		Amount:       decimal.NewFromFloat(txn.GetAmount()),
		Categories:   categories,
		Date:         txn.GetDate(),
		Name:         txn.GetName(),
		MerchantName: txn.GetMerchantName(),
		OwnerName:    txn.GetAccountOwner(),
	}
}
