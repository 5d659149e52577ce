package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finance-link-server/src/models"
)

// Client talks to the finance-link API server.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Path, e.Status, e.Body)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type accessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	var resp struct {
		LinkToken string `json:"link_token"`
	}
	body := map[string]string{"client_user_id": clientUserID}
	if err := c.post(ctx, "/api/create_link_token", body, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (models.ExchangeResult, error) {
	var resp models.ExchangeResult
	body := map[string]string{"public_token": publicToken}
	if err := c.post(ctx, "/api/set_access_token", body, &resp); err != nil {
		return models.ExchangeResult{}, err
	}
	return resp, nil
}

func (c *Client) Accounts(ctx context.Context, accessToken string) ([]models.Account, error) {
	var resp models.AccountsResponse
	if err := c.post(ctx, "/api/accounts", accessTokenRequest{accessToken}, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *Client) Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error) {
	var resp models.TransactionsResponse
	if err := c.post(ctx, "/api/transactions", accessTokenRequest{accessToken}, &resp); err != nil {
		return models.TransactionsResponse{}, err
	}
	return resp, nil
}

func (c *Client) Summary(ctx context.Context, accessToken string) (models.ChartDataset, error) {
	var resp models.ChartDataset
	if err := c.post(ctx, "/api/chart/summary", accessTokenRequest{accessToken}, &resp); err != nil {
		return models.ChartDataset{}, err
	}
	return resp, nil
}

// SandboxPublicToken asks a sandbox server to mint a public token for the
// given institution, skipping the hosted widget.
func (c *Client) SandboxPublicToken(ctx context.Context, institutionID string) (string, error) {
	var resp struct {
		PublicToken string `json:"public_token"`
	}
	body := map[string]string{"institution_id": institutionID}
	if err := c.post(ctx, "/api/sandbox/public_token", body, &resp); err != nil {
		return "", err
	}
	return resp.PublicToken, nil
}
