package checkout

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voyagedesk/voyagedesk/internal/platform/httpx"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// Handler exposes the cart contract and checkout over HTTP. Carts are
// session-scoped: every route requires an actor identity.
type Handler struct {
	registry    *Registry
	coordinator *Coordinator
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewHandler constructs the checkout HTTP handler.
func NewHandler(registry *Registry, coordinator *Coordinator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:    registry,
		coordinator: coordinator,
		validate:    validator.New(),
		logger:      logger,
	}
}

// MountRoutes attaches cart and checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
	r.Post("/cart/clear", h.ClearCart)
	r.Post("/checkout", h.Checkout)
}

// GetCart returns the actor's cart summary.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, NewCartView(h.registry.CartFor(actorID)))
}

// AddItem adds a normalized cart item, merging quantity on an existing
// business key.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	item, err := req.ToCartItem()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cart := h.registry.CartFor(actorID)
	if err := cart.AddItem(item); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	httpx.JSON(w, http.StatusOK, NewCartView(cart))
}

// RemoveItem deletes one cart entry by its cart-local id.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	cart := h.registry.CartFor(actorID)
	cart.RemoveItem(chi.URLParam(r, "id"))
	httpx.JSON(w, http.StatusOK, NewCartView(cart))
}

// ClearCart empties the actor's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	h.registry.CartFor(actorID).Clear()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Checkout converts the actor's cart into bookings and one payment.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	actorID := shared.ActorFromContext(r.Context())
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	cart := h.registry.CartFor(actorID)
	method := PaymentMethod{Kind: req.Method, AccountID: req.AccountID}
	payment, err := h.coordinator.Checkout(r.Context(), cart, method, actorID)
	if err != nil {
		h.logger.Error("checkout failed", slog.String("actor", actorID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.registry.Drop(actorID)
	httpx.JSON(w, http.StatusCreated, NewPaymentView(payment))
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := shared.ActorFromContext(r.Context())
	if actorID == "" {
		httpx.RespondError(w, fmt.Errorf("%w: missing actor identity", shared.ErrUnauthenticated))
		return "", false
	}
	return actorID, true
}
