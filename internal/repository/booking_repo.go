package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
)

type BookingListFilter struct {
	AccountID string
	Role      string
	Status    string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(
	ctx context.Context,
	slotID int64,
	requesterID string,
	counterpartID string,
) (*models.PairBooking, error) {
	query := `
		INSERT INTO pair_bookings (slot_id, requester_id, counterpart_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, slot_id, requester_id, counterpart_id, status, created_at, decided_at
	`

	var booking models.PairBooking
	err := r.db.QueryRow(ctx, query, slotID, requesterID, counterpartID).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.RequesterID,
		&booking.CounterpartID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.PairBooking, error) {
	query := `
		SELECT id, slot_id, requester_id, counterpart_id, status, created_at, decided_at
		FROM pair_bookings
		WHERE id = $1
	`
	var booking models.PairBooking
	err := r.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.RequesterID,
		&booking.CounterpartID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ExistsActiveForPair reports whether the slot already carries a pending or
// approved booking between the two accounts, in either role orientation.
func (r *BookingRepository) ExistsActiveForPair(
	ctx context.Context,
	slotID int64,
	firstID string,
	secondID string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM pair_bookings
			WHERE slot_id = $1
			  AND status IN ('pending', 'approved')
			  AND LEAST(requester_id, counterpart_id) = LEAST($2::text, $3::text)
			  AND GREATEST(requester_id, counterpart_id) = GREATEST($2::text, $3::text)
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, slotID, firstID, secondID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *BookingRepository) List(
	ctx context.Context,
	filter BookingListFilter,
) ([]models.PairBooking, error) {
	args := []any{filter.AccountID}

	var whereParts []string
	switch filter.Role {
	case models.BookingRoleRequester:
		whereParts = append(whereParts, "requester_id = $1")
	case models.BookingRoleCounterpart:
		whereParts = append(whereParts, "counterpart_id = $1")
	default:
		whereParts = append(whereParts, "(requester_id = $1 OR counterpart_id = $1)")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, slot_id, requester_id, counterpart_id, status, created_at, decided_at
		FROM pair_bookings
		WHERE %s
		ORDER BY created_at DESC, id DESC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.PairBooking, 0)
	for rows.Next() {
		var booking models.PairBooking
		if err := rows.Scan(
			&booking.ID,
			&booking.SlotID,
			&booking.RequesterID,
			&booking.CounterpartID,
			&booking.Status,
			&booking.CreatedAt,
			&booking.DecidedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// UpdateStatusIfCurrent moves the booking from currentStatus to nextStatus and
// stamps decided_at. Returns pgx.ErrNoRows when the booking is no longer in
// currentStatus, which callers treat as a lost race.
func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.PairBooking, error) {
	query := `
		UPDATE pair_bookings
		SET status = $3, decided_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING id, slot_id, requester_id, counterpart_id, status, created_at, decided_at
	`
	var booking models.PairBooking
	err := r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.RequesterID,
		&booking.CounterpartID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelIfActive cancels a pending or approved booking in one compare-and-swap.
func (r *BookingRepository) CancelIfActive(
	ctx context.Context,
	bookingID int64,
) (*models.PairBooking, error) {
	query := `
		UPDATE pair_bookings
		SET status = 'cancelled', decided_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')
		RETURNING id, slot_id, requester_id, counterpart_id, status, created_at, decided_at
	`
	var booking models.PairBooking
	err := r.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.RequesterID,
		&booking.CounterpartID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
