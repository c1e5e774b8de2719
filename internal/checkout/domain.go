package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType enumerates the sellable travel services.
type ServiceType string

const (
	ServiceTypeFlight   ServiceType = "FLIGHT"
	ServiceTypeHotel    ServiceType = "HOTEL"
	ServiceTypeTransfer ServiceType = "TRANSFER"
	ServiceTypeTour     ServiceType = "TOUR"
	ServiceTypeOther    ServiceType = "OTHER"
)

// ItemPayload carries the service-specific booking details. Each service
// type has its own typed variant; the coordinator never inspects these
// beyond serialising them onto the booking record.
type ItemPayload interface {
	ServiceType() ServiceType
}

// FlightDetails describes a flight ticket item.
type FlightDetails struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Class        string `json:"class,omitempty"`
}

func (FlightDetails) ServiceType() ServiceType { return ServiceTypeFlight }

// HotelDetails describes a hotel stay item.
type HotelDetails struct {
	HotelName string    `json:"hotel_name"`
	RoomType  string    `json:"room_type,omitempty"`
	Nights    int       `json:"nights"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
}

func (HotelDetails) ServiceType() ServiceType { return ServiceTypeHotel }

// TransferDetails describes a ground transfer item.
type TransferDetails struct {
	PickupPoint  string `json:"pickup_point"`
	DropoffPoint string `json:"dropoff_point"`
	Vehicle      string `json:"vehicle,omitempty"`
}

func (TransferDetails) ServiceType() ServiceType { return ServiceTypeTransfer }

// GenericDetails covers tours and anything without a dedicated variant.
type GenericDetails struct {
	Type        ServiceType `json:"type"`
	Description string      `json:"description,omitempty"`
}

func (d GenericDetails) ServiceType() ServiceType {
	if d.Type == "" {
		return ServiceTypeOther
	}
	return d.Type
}

// marshalPayload serialises a payload onto the booking record. Unmarshalable
// or absent payloads degrade to an empty object rather than failing checkout.
func marshalPayload(p ItemPayload) json.RawMessage {
	if p == nil {
		return json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// CartItem is one line of the session cart. The BusinessKey is the
// externally visible transaction code and the idempotency key for booking
// creation; IDs are cart-local and ephemeral.
type CartItem struct {
	ID          string
	BusinessKey string
	Name        string
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	SalesFee    decimal.Decimal
	Quantity    int
	ServiceDate time.Time
	Payload     ItemPayload
}

// Validate checks cart item shape before it enters the cart.
func (it CartItem) Validate() error {
	if it.BusinessKey == "" {
		return errors.New("checkout: cart item missing business key")
	}
	if it.Name == "" {
		return errors.New("checkout: cart item missing name")
	}
	if it.UnitPrice.IsNegative() {
		return fmt.Errorf("checkout: item %s negative unit price", it.BusinessKey)
	}
	if it.Quantity < 1 {
		return fmt.Errorf("checkout: item %s quantity below one", it.BusinessKey)
	}
	return nil
}

// Total is unit price times quantity.
func (it CartItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// serviceType resolves the item's type from its payload.
func (it CartItem) serviceType() ServiceType {
	if it.Payload == nil {
		return ServiceTypeOther
	}
	return it.Payload.ServiceType()
}

// BookingStatus enumerates booking lifecycle values. Bookings are never
// deleted, only status-transitioned.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is one persisted sold service.
type Booking struct {
	ID             int64
	BusinessKey    string
	ServiceType    ServiceType
	ServiceName    string
	ServiceDetails json.RawMessage
	SellPrice      decimal.Decimal
	CostPrice      decimal.Decimal
	SalesFee       decimal.Decimal
	Profit         decimal.Decimal
	Quantity       int
	TotalAmount    decimal.Decimal
	ServiceDate    time.Time
	Status         BookingStatus
	CreatedAt      time.Time
}

// Profit computes the margin with a zero floor: selling below cost records
// no negative profit on the booking.
func Profit(sellPrice, costPrice, salesFee decimal.Decimal) decimal.Decimal {
	p := sellPrice.Sub(costPrice).Sub(salesFee)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// PaymentKind enumerates supported payment methods.
type PaymentKind string

const (
	PaymentKindCash         PaymentKind = "cash"
	PaymentKindBankTransfer PaymentKind = "bank_transfer"
	PaymentKindCard         PaymentKind = "card"
)

// RequiresAccount reports whether the method must designate a settlement
// account.
func (k PaymentKind) RequiresAccount() bool {
	return k == PaymentKindBankTransfer || k == PaymentKindCard
}

// PaymentMethod is the caller's payment selection.
type PaymentMethod struct {
	Kind      PaymentKind
	AccountID *int64
}

// PaymentStatus enumerates payment record states.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one successful checkout. BookingIDs covers every booking
// the cart referenced, newly created or pre-existing; TotalAmount always
// equals the cart's displayed total.
type Payment struct {
	ID          int64
	BookingIDs  []int64
	TotalAmount decimal.Decimal
	Method      PaymentKind
	AccountID   *int64
	Status      PaymentStatus
	Reference   string
	Notes       string
	CreatedAt   time.Time
}

var (
	// ErrEmptyCart indicates checkout was invoked with nothing to sell.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidPaymentSelection indicates a method requiring a designated
	// account was chosen without one.
	ErrInvalidPaymentSelection = errors.New("checkout: payment method requires a settlement account")
	// ErrDuplicateKey indicates the store rejected a booking insert on the
	// business key uniqueness constraint.
	ErrDuplicateKey = errors.New("checkout: duplicate business key")
	// ErrBookingNotFound indicates no booking matches the business key.
	ErrBookingNotFound = errors.New("checkout: booking not found")
)
