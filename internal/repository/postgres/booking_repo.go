package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventservices/internal/domain"

	"github.com/lib/pq"
)

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

const bookingColumns = `id, user_id, provider_id, starts_at, ends_at, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	if err := row.Scan(&b.ID, &b.UserID, &b.ProviderID, &b.Slot.Start, &b.Slot.End, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Get(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) || isBadID(err) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *bookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (user_id, provider_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		b.UserID, b.ProviderID, b.Slot.Start, b.Slot.End, b.Status, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
}

// Update persists the mutable fields of a booking (status and updated_at).
func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := r.DB.ExecContext(ctx, query, b.Status, b.UpdatedAt, b.ID)
	if err != nil {
		if isBadID(err) {
			return domain.ErrNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Scan translates the filter into a WHERE clause. Rows come back ordered by
// slot start, creation time and id.
func (r *bookingRepository) Scan(ctx context.Context, f domain.BookingFilter) ([]*domain.Booking, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = "+arg(f.UserID))
	}
	if f.ProviderID != "" {
		conds = append(conds, "provider_id = "+arg(f.ProviderID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status = ANY("+arg(pq.StringArray(statuses))+")")
	}
	if f.Overlapping != nil {
		conds = append(conds, "starts_at < "+arg(f.Overlapping.End)+" AND ends_at > "+arg(f.Overlapping.Start))
	}
	if f.EndsBefore != nil {
		conds = append(conds, "ends_at < "+arg(*f.EndsBefore))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY starts_at, created_at, id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if isBadID(err) {
			return []*domain.Booking{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	bookings := []*domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
