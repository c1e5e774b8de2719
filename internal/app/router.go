package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyagedesk/voyagedesk/internal/checkout"
	"github.com/voyagedesk/voyagedesk/internal/ledger"
	"github.com/voyagedesk/voyagedesk/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	LedgerHandler   *ledger.Handler
	CheckoutHandler *checkout.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with voyagedesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.LedgerHandler != nil {
		r.Route("/ledger", func(r chi.Router) {
			params.LedgerHandler.MountRoutes(r)
		})
	}
	if params.CheckoutHandler != nil {
		r.Group(func(r chi.Router) {
			if params.Config != nil {
				r.Use(CheckoutRateLimiter(params.Config.CheckoutRateLimit, params.Config.CheckoutRateWindow))
			}
			params.CheckoutHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
