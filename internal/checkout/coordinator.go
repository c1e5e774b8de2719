package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// resolveRetries bounds the duplicate-key recovery loop in Persisting. The
// store's uniqueness constraint on business_key is the actual safety net;
// the lookup pass is a best-effort fast path.
const resolveRetries = 2

// Recorder receives checkout outcome observations. Implemented by the
// observability metrics; nil disables recording.
type Recorder interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

// Coordinator converts a cart into persisted bookings and exactly one
// payment record per successful call.
//
// Each invocation walks Validating, ResolvingBookings, Persisting,
// PaymentRecorded and StatusPromoted in order, terminal on success or
// failure; there are no automatic partial retries. The step ordering is a
// hard dependency chain: nothing parallel crosses a step boundary.
type Coordinator struct {
	store    Store
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(store Store, logger *slog.Logger, recorder Recorder) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger, recorder: recorder, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (c *Coordinator) WithNow(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// resolved pairs a cart item with its pre-existing booking, when one exists.
type resolved struct {
	item    CartItem
	booking *Booking
}

// Checkout performs the idempotent cart-to-payment transition. Items whose
// business key already has a booking are reused, never re-inserted. Only
// booking creation is deduplicated; each successful call records its own
// payment (see the retry note on notes below).
//
// On full success the cart is cleared and the payment returned. A payment
// insert failure leaves the already-inserted bookings confirmed and unpaid;
// that state is recoverable through a retried checkout, not rolled back,
// because the store exposes no cross-collection transaction here.
func (c *Coordinator) Checkout(ctx context.Context, cart *Cart, method PaymentMethod, actorID string) (*Payment, error) {
	started := c.now()
	payment, err := c.run(ctx, cart, method, actorID)
	if c.recorder != nil {
		outcome := "success"
		if err != nil {
			outcome = outcomeLabel(err)
		}
		c.recorder.ObserveCheckout(outcome, c.now().Sub(started))
	}
	return payment, err
}

func (c *Coordinator) run(ctx context.Context, cart *Cart, method PaymentMethod, actorID string) (*Payment, error) {
	// Validating.
	items, err := c.validate(cart, method, actorID)
	if err != nil {
		return nil, err
	}

	// ResolvingBookings: independent reads, issued concurrently. Any lookup
	// error fails the whole checkout; guessing "not found" on a timeout
	// would risk a duplicate on retry.
	resolvedItems, err := c.resolve(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("checkout: resolve bookings: %w", err)
	}

	// Persisting: bulk insert, whole batch or nothing. On a duplicate key
	// rejection the raced-in rows are re-resolved and reused.
	bookingIDs, created, err := c.persist(ctx, resolvedItems, actorID)
	if err != nil {
		return nil, err
	}

	// PaymentRecorded: exactly one payment covering every involved booking.
	// The total is the cart's displayed total regardless of how many
	// bookings were newly created, so a retried checkout reports the same
	// amount the user saw.
	payment := &Payment{
		BookingIDs:  bookingIDs,
		TotalAmount: cartTotal(items),
		Method:      method.Kind,
		AccountID:   method.AccountID,
		Status:      PaymentStatusCompleted,
		Reference:   newPaymentReference(),
		Notes:       paymentNotes(items, actorID),
		CreatedAt:   c.now(),
	}
	if err := c.store.InsertPayment(ctx, payment); err != nil {
		// Bookings stay confirmed and unpaid. Accepted recoverable state;
		// a subsequent checkout reuses them by business key.
		return nil, fmt.Errorf("%w: payment insert failed after %d bookings persisted: %w",
			shared.ErrPartialCommit, created, err)
	}

	// StatusPromoted: the payment record is the source of truth for "this
	// cart was paid"; the status column is a read optimisation, so failure
	// here is logged, not raised.
	if err := c.store.UpdateBookingStatus(ctx, bookingIDs, BookingStatusPaid); err != nil {
		c.logger.Warn("booking status promotion failed after payment",
			slog.Int64("payment_id", payment.ID),
			slog.String("reference", payment.Reference),
			slog.Any("error", err))
	}

	if created == 0 {
		// Every booking pre-existed: either a duplicate submission or a
		// retry of an interrupted checkout. Payments are intentionally not
		// deduplicated here; flag it for manual reconciliation.
		c.logger.Warn("checkout reused only existing bookings",
			slog.String("reference", payment.Reference),
			slog.Int("bookings", len(bookingIDs)))
	}

	cart.Clear()
	c.logger.Info("checkout completed",
		slog.String("actor", actorID),
		slog.String("reference", payment.Reference),
		slog.Int("bookings", len(bookingIDs)),
		slog.Int("created", created),
		slog.String("total", payment.TotalAmount.String()))
	return payment, nil
}

func (c *Coordinator) validate(cart *Cart, method PaymentMethod, actorID string) ([]CartItem, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: checkout requires an authenticated actor", shared.ErrUnauthenticated)
	}
	if cart == nil || cart.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, ErrEmptyCart)
	}
	if method.Kind.RequiresAccount() && method.AccountID == nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, ErrInvalidPaymentSelection)
	}
	return cart.Items(), nil
}

func (c *Coordinator) resolve(ctx context.Context, items []CartItem) ([]resolved, error) {
	out := make([]resolved, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			existing, err := c.store.FindBookingByKey(gctx, item.BusinessKey)
			if err != nil && !errors.Is(err, ErrBookingNotFound) {
				return err
			}
			out[i] = resolved{item: item, booking: existing}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// persist creates the missing bookings and returns the full id set, cart
// order preserved, plus the count of newly created rows.
func (c *Coordinator) persist(ctx context.Context, resolvedItems []resolved, actorID string) ([]int64, int, error) {
	created := 0
	for attempt := 0; ; attempt++ {
		var staged []Booking
		stagedPos := make([]int, 0)
		for i, res := range resolvedItems {
			if res.booking != nil {
				continue
			}
			staged = append(staged, c.newBooking(res.item))
			stagedPos = append(stagedPos, i)
		}
		if len(staged) == 0 {
			break
		}

		ids, err := c.store.InsertBookings(ctx, staged)
		if err == nil {
			for n, pos := range stagedPos {
				booking := staged[n]
				booking.ID = ids[n]
				resolvedItems[pos].booking = &booking
			}
			created += len(ids)
			break
		}
		if !errors.Is(err, ErrDuplicateKey) || attempt >= resolveRetries {
			// Whole batch aborted; no partial booking set exists.
			return nil, 0, fmt.Errorf("checkout: persist bookings: %w", err)
		}
		// A concurrent checkout won the insert race for at least one key.
		// Treat the rejection as "already exists": re-resolve and reuse.
		c.logger.Info("booking insert raced, re-resolving", slog.Int("attempt", attempt+1))
		for _, pos := range stagedPos {
			existing, ferr := c.store.FindBookingByKey(ctx, resolvedItems[pos].item.BusinessKey)
			if ferr != nil && !errors.Is(ferr, ErrBookingNotFound) {
				return nil, 0, fmt.Errorf("checkout: re-resolve after conflict: %w", ferr)
			}
			resolvedItems[pos].booking = existing
		}
	}

	ids := make([]int64, len(resolvedItems))
	for i, res := range resolvedItems {
		ids[i] = res.booking.ID
	}
	return ids, created, nil
}

func (c *Coordinator) newBooking(item CartItem) Booking {
	details := marshalPayload(item.Payload)
	return Booking{
		BusinessKey:    item.BusinessKey,
		ServiceType:    item.serviceType(),
		ServiceName:    item.Name,
		ServiceDetails: details,
		SellPrice:      item.UnitPrice,
		CostPrice:      item.CostPrice,
		SalesFee:       item.SalesFee,
		Profit:         Profit(item.UnitPrice, item.CostPrice, item.SalesFee),
		Quantity:       item.Quantity,
		TotalAmount:    item.Total(),
		ServiceDate:    item.ServiceDate,
		Status:         BookingStatusConfirmed,
		CreatedAt:      c.now(),
	}
}

func cartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// paymentNotes builds the default human-readable summary; never empty.
func paymentNotes(items []CartItem, actorID string) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}
	return fmt.Sprintf("Checkout by %s: %s", actorID, strings.Join(names, ", "))
}

func newPaymentReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, shared.ErrValidation):
		return "validation"
	case errors.Is(err, shared.ErrPartialCommit):
		return "partial_commit"
	case errors.Is(err, shared.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
