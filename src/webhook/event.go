package webhook

import (
	"encoding/json"
	"fmt"
)

// Event is the subset of a Plaid webhook payload the server acts on.
type Event struct {
	Type   string     `json:"webhook_type"`
	Code   string     `json:"webhook_code"`
	ItemID string     `json:"item_id"`
	Error  *ItemError `json:"error,omitempty"`
}

type ItemError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode webhook: %w", err)
	}
	if ev.Type == "" || ev.ItemID == "" {
		return Event{}, fmt.Errorf("webhook missing webhook_type or item_id")
	}
	return ev, nil
}

// InvalidatesData reports whether the event means cached accounts or
// transactions for the item are stale.
func (e Event) InvalidatesData() bool {
	switch e.Type {
	case "TRANSACTIONS":
		return true
	case "ITEM":
		return e.Code == "ERROR" || e.Code == "LOGIN_REPAIRED" || e.Code == "NEW_ACCOUNTS_AVAILABLE"
	}
	return false
}

// ItemStatus maps ITEM webhooks to the status recorded for the item, or ""
// when the event does not change it.
func (e Event) ItemStatus() string {
	if e.Type != "ITEM" {
		return ""
	}
	switch e.Code {
	case "ERROR":
		if e.Error != nil && e.Error.Code == "ITEM_LOGIN_REQUIRED" {
			return "login_required"
		}
		return "error"
	case "PENDING_EXPIRATION", "PENDING_DISCONNECT":
		return "pending_expiration"
	case "USER_PERMISSION_REVOKED", "USER_ACCOUNT_REVOKED":
		return "revoked"
	case "LOGIN_REPAIRED":
		return "active"
	}
	return ""
}
