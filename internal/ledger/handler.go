package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyagedesk/voyagedesk/internal/platform/httpx"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// Handler exposes the reporting contract over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes attaches ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Post("/trial-balance/recompute", h.Recompute)
}

// TrialBalance serves the period trial balance view.
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tb, err := h.service.GetTrialBalance(r.Context(), period)
	if err != nil {
		h.logger.Error("trial balance", slog.String("period", period.Label()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

// BalanceSheet serves the classified balance sheet view.
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bs, err := h.service.GetBalanceSheet(r.Context(), period)
	if err != nil {
		h.logger.Error("balance sheet", slog.String("period", period.Label()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

// Recompute rebuilds snapshots for the requested period on demand.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	snaps, err := h.service.Recompute(r.Context(), period)
	if err != nil {
		h.logger.Error("recompute trial balance", slog.String("period", period.Label()), slog.Any("error", err))
		// Rows may have been written even when some failed; report both.
		httpx.JSON(w, http.StatusMultiStatus, map[string]any{
			"rows_written": len(snaps),
			"error":        err.Error(),
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows_written": len(snaps)})
}

// periodFromQuery reads ?start and ?end, defaulting to the current month.
func periodFromQuery(r *http.Request) (shared.Period, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" && end == "" {
		return shared.MonthOf(time.Now()), nil
	}
	return shared.ParsePeriod(start, end)
}
