package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyagedesk/voyagedesk/internal/platform/db"
	"github.com/voyagedesk/voyagedesk/internal/shared"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// Store is the persistence boundary the coordinator drives. The store does
// not expose multi-table transactions across bookings and payments; the
// coordinator's step ordering compensates.
type Store interface {
	FindBookingByKey(ctx context.Context, businessKey string) (*Booking, error)
	InsertBookings(ctx context.Context, bookings []Booking) ([]int64, error)
	InsertPayment(ctx context.Context, payment *Payment) error
	UpdateBookingStatus(ctx context.Context, ids []int64, status BookingStatus) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed checkout store.
func NewRepository(pool *pgxpool.Pool) Store {
	return &repository{pool: pool}
}

func (r *repository) FindBookingByKey(ctx context.Context, businessKey string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, business_key, service_type, service_name, service_details,
		       sell_price, cost_price, sales_fee, profit, quantity, total_amount,
		       service_date, status, created_at
		FROM bookings
		WHERE business_key = $1`, businessKey)

	var b Booking
	err := row.Scan(&b.ID, &b.BusinessKey, &b.ServiceType, &b.ServiceName, &b.ServiceDetails,
		&b.SellPrice, &b.CostPrice, &b.SalesFee, &b.Profit, &b.Quantity, &b.TotalAmount,
		&b.ServiceDate, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("checkout: find booking %s: %w", businessKey, storeErr(err))
	}
	return &b, nil
}

// InsertBookings bulk-inserts the batch inside one transaction: either every
// staged booking lands or none does. A unique violation on business_key is
// surfaced as ErrDuplicateKey so the coordinator can re-resolve and reuse
// the raced-in rows.
func (r *repository) InsertBookings(ctx context.Context, bookings []Booking) ([]int64, error) {
	if len(bookings) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(bookings))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, b := range bookings {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO bookings
					(business_key, service_type, service_name, service_details,
					 sell_price, cost_price, sales_fee, profit, quantity, total_amount,
					 service_date, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				RETURNING id`,
				b.BusinessKey, string(b.ServiceType), b.ServiceName, b.ServiceDetails,
				b.SellPrice, b.CostPrice, b.SalesFee, b.Profit, b.Quantity, b.TotalAmount,
				b.ServiceDate, string(b.Status), b.CreatedAt).Scan(&id)
			if err != nil {
				return fmt.Errorf("checkout: insert booking %s: %w", b.BusinessKey, storeErr(err))
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) InsertPayment(ctx context.Context, payment *Payment) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO payments
				(total_amount, method, account_id, status, reference, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			payment.TotalAmount, string(payment.Method), payment.AccountID,
			string(payment.Status), payment.Reference, payment.Notes, payment.CreatedAt).Scan(&id)
		if err != nil {
			return fmt.Errorf("checkout: insert payment: %w", storeErr(err))
		}
		for _, bookingID := range payment.BookingIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO payment_bookings (payment_id, booking_id) VALUES ($1, $2)`,
				id, bookingID); err != nil {
				return fmt.Errorf("checkout: link payment booking %d: %w", bookingID, storeErr(err))
			}
		}
		payment.ID = id
		return nil
	})
	return err
}

func (r *repository) UpdateBookingStatus(ctx context.Context, ids []int64, status BookingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = $1 WHERE id = ANY($2)`, string(status), ids)
	if err != nil {
		return fmt.Errorf("checkout: update booking status: %w", storeErr(err))
	}
	return nil
}

// storeErr distinguishes the unique-key rejection from transient failures.
func storeErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %w", shared.ErrConflict, ErrDuplicateKey)
	}
	return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
}
