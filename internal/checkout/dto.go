package checkout

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// AddItemRequest is the normalized cart item shape every booking form
// produces. The typed detail blocks replace the source dashboard's loose
// field bags; exactly the block matching ServiceType is read.
type AddItemRequest struct {
	BusinessKey string          `json:"business_key" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	ServiceType ServiceType     `json:"service_type" validate:"required,oneof=FLIGHT HOTEL TRANSFER TOUR OTHER"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalesFee    decimal.Decimal `json:"sales_fee"`
	Quantity    int             `json:"quantity" validate:"required,gte=1"`
	ServiceDate time.Time       `json:"service_date" validate:"required"`

	Flight   *FlightDetails   `json:"flight,omitempty"`
	Hotel    *HotelDetails    `json:"hotel,omitempty"`
	Transfer *TransferDetails `json:"transfer,omitempty"`
	Details  string           `json:"details,omitempty"`
}

// ToCartItem converts the request into a cart item with its typed payload.
func (req AddItemRequest) ToCartItem() (CartItem, error) {
	if req.UnitPrice.IsNegative() || req.CostPrice.IsNegative() || req.SalesFee.IsNegative() {
		return CartItem{}, fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	item := CartItem{
		BusinessKey: req.BusinessKey,
		Name:        req.Name,
		UnitPrice:   req.UnitPrice,
		CostPrice:   req.CostPrice,
		SalesFee:    req.SalesFee,
		Quantity:    req.Quantity,
		ServiceDate: req.ServiceDate,
	}
	switch req.ServiceType {
	case ServiceTypeFlight:
		if req.Flight == nil {
			return CartItem{}, fmt.Errorf("%w: flight item missing flight details", shared.ErrValidation)
		}
		item.Payload = *req.Flight
	case ServiceTypeHotel:
		if req.Hotel == nil {
			return CartItem{}, fmt.Errorf("%w: hotel item missing hotel details", shared.ErrValidation)
		}
		item.Payload = *req.Hotel
	case ServiceTypeTransfer:
		if req.Transfer == nil {
			return CartItem{}, fmt.Errorf("%w: transfer item missing transfer details", shared.ErrValidation)
		}
		item.Payload = *req.Transfer
	default:
		item.Payload = GenericDetails{Type: req.ServiceType, Description: req.Details}
	}
	return item, nil
}

// CheckoutRequest selects the payment method for the actor's cart.
type CheckoutRequest struct {
	Method    PaymentKind `json:"method" validate:"required,oneof=cash bank_transfer card"`
	AccountID *int64      `json:"account_id,omitempty" validate:"omitempty,gt=0"`
}

// CartItemView is the read-only cart line for the dashboard.
type CartItemView struct {
	ID          string          `json:"id"`
	BusinessKey string          `json:"business_key"`
	Name        string          `json:"name"`
	ServiceType ServiceType     `json:"service_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	ServiceDate time.Time       `json:"service_date"`
}

// CartView is the derived read-only cart summary.
type CartView struct {
	Items      []CartItemView  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// NewCartView renders the cart.
func NewCartView(cart *Cart) CartView {
	items := cart.Items()
	view := CartView{
		Items:      make([]CartItemView, 0, len(items)),
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
	for _, item := range items {
		view.Items = append(view.Items, CartItemView{
			ID:          item.ID,
			BusinessKey: item.BusinessKey,
			Name:        item.Name,
			ServiceType: item.serviceType(),
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Total:       item.Total(),
			ServiceDate: item.ServiceDate,
		})
	}
	return view
}

// PaymentView is the checkout response.
type PaymentView struct {
	ID          int64           `json:"id"`
	BookingIDs  []int64         `json:"booking_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      PaymentKind     `json:"method"`
	Status      PaymentStatus   `json:"status"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewPaymentView renders a payment.
func NewPaymentView(p *Payment) PaymentView {
	return PaymentView{
		ID:          p.ID,
		BookingIDs:  p.BookingIDs,
		TotalAmount: p.TotalAmount,
		Method:      p.Method,
		Status:      p.Status,
		Reference:   p.Reference,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}
