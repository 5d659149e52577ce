package api

import (
	"net/http"

	"finance-link-server/src/db"
	"finance-link-server/src/handlers"
	"finance-link-server/src/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Gateway is everything the routes need from Plaid.
type Gateway interface {
	handlers.PlaidGateway
	handlers.SandboxGateway
}

type RouterConfig struct {
	AllowedOrigins []string
	Sandbox        bool
}

func NewRouter(cfg RouterConfig, log zerolog.Logger, gw Gateway, cache *db.Cache, store handlers.ItemStore, verifier handlers.WebhookVerifier) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/create_link_token", handlers.CreateLinkToken(gw))
		r.Post("/set_access_token", handlers.SetAccessToken(gw, cache, store))

		r.Get("/accounts", handlers.GetAccounts(gw, cache, store))
		r.Post("/accounts", handlers.GetAccounts(gw, cache, store))
		r.Get("/transactions", handlers.GetTransactions(gw, cache))
		r.Post("/transactions", handlers.GetTransactions(gw, cache))
		r.Post("/chart/summary", handlers.GetSummaryChart(gw, cache))

		r.Post("/plaid/webhook", handlers.PlaidWebhook(verifier, cache, store))
		if cfg.Sandbox {
			r.Post("/sandbox/public_token", handlers.SandboxPublicToken(gw))
			r.Post("/sandbox/cache/clear/{cache_name}", handlers.ClearCache(cache))
		}
	})

	return r
}
