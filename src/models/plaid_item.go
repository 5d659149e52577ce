package models

import "time"

type PlaidItem struct {
	ID            int64     `json:"id"`
	ItemID        string    `json:"item_id"`
	ClientUserID  string    `json:"client_user_id"`
	AccessToken   string    `json:"-"`
	InstitutionID string    `json:"institution_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExchangeResult is what a successful public token exchange yields.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}
