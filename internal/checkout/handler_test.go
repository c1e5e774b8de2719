package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

func newTestHandler(t *testing.T, store Store) (*Handler, chi.Router) {
	t.Helper()
	h := NewHandler(NewRegistry(), NewCoordinator(store, nil, nil), nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return h, r
}

func doRequest(t *testing.T, r chi.Router, method, path, actorID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req = req.WithContext(shared.ContextWithActor(context.Background(), actorID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const flightItemBody = `{
	"business_key": "TKT-001",
	"name": "Jakarta-Bali",
	"service_type": "FLIGHT",
	"unit_price": "1000000",
	"cost_price": "800000",
	"quantity": 2,
	"service_date": "2026-09-15T00:00:00Z",
	"flight": {"airline": "GA", "flight_number": "GA-402", "origin": "CGK", "destination": "DPS"}
}`

func TestHandlerAddItemAndGetCart(t *testing.T) {
	_, r := newTestHandler(t, newFakeCheckoutStore())

	rec := doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", flightItemBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, "2000000", view.TotalPrice.String())

	// Re-adding the same business key merges instead of duplicating.
	rec = doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", flightItemBody)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.TotalItems)

	rec = doRequest(t, r, http.MethodGet, "/cart", "agent-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerRequiresActor(t *testing.T) {
	_, r := newTestHandler(t, newFakeCheckoutStore())

	rec := doRequest(t, r, http.MethodGet, "/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/checkout", "", `{"method":"cash"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerAddItemValidation(t *testing.T) {
	_, r := newTestHandler(t, newFakeCheckoutStore())

	rec := doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", `{"name": "incomplete"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Flight item without its details block.
	noDetails := `{"business_key":"TKT-002","name":"X","service_type":"FLIGHT","quantity":1,"service_date":"2026-09-15T00:00:00Z"}`
	rec = doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", noDetails)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCheckoutFlow(t *testing.T) {
	store := newFakeCheckoutStore()
	_, r := newTestHandler(t, store)

	rec := doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", flightItemBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/checkout", "agent-1", `{"method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view PaymentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "2000000", view.TotalAmount.String())
	assert.Equal(t, PaymentStatusCompleted, view.Status)
	assert.Len(t, view.BookingIDs, 1)
	assert.Equal(t, 1, store.paymentCount())

	// The cart is gone after a successful checkout.
	rec = doRequest(t, r, http.MethodGet, "/cart", "agent-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cart CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

func TestHandlerCheckoutEmptyCart(t *testing.T) {
	_, r := newTestHandler(t, newFakeCheckoutStore())
	rec := doRequest(t, r, http.MethodPost, "/checkout", "agent-1", `{"method":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCheckoutBankTransferNeedsAccount(t *testing.T) {
	_, r := newTestHandler(t, newFakeCheckoutStore())
	rec := doRequest(t, r, http.MethodPost, "/cart/items", "agent-1", flightItemBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/checkout", "agent-1", `{"method":"bank_transfer"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/checkout", "agent-1", `{"method":"bank_transfer","account_id":42}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
