package handlers

import (
	"context"
	"io"
	"net/http"

	"finance-link-server/src/db"
	"finance-link-server/src/logger"
	"finance-link-server/src/webhook"
)

type WebhookVerifier interface {
	Verify(ctx context.Context, body []byte, header http.Header) error
}

// PlaidWebhook verifies a Plaid webhook, drops cached data for the item when
// it went stale and records item status changes.
func PlaidWebhook(verifier WebhookVerifier, cache *db.Cache, store ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := verifier.Verify(r.Context(), body, r.Header); err != nil {
			log.Warn().Err(err).Msg("Rejected unverified Plaid webhook")
			http.Error(w, "invalid webhook signature", http.StatusUnauthorized)
			return
		}

		ev, err := webhook.ParseEvent(body)
		if err != nil {
			log.Error().Err(err).Msg("Failed to decode Plaid webhook")
			http.Error(w, "invalid webhook", http.StatusBadRequest)
			return
		}

		log = log.With().Str("item_id", ev.ItemID).Str("webhook_type", ev.Type).Str("webhook_code", ev.Code).Logger()

		if ev.InvalidatesData() {
			if cache.InvalidateItem(ev.ItemID) {
				log.Info().Msg("Invalidated cached data for item")
			} else {
				log.Debug().Msg("No cached data registered for item")
			}
		}

		if status := ev.ItemStatus(); status != "" {
			if err := store.UpdateItemStatus(r.Context(), ev.ItemID, status); err != nil {
				log.Warn().Err(err).Str("status", status).Msg("Failed to update item status")
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
