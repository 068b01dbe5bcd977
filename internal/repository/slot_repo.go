package repository

import (
	"context"
	"time"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type CreateSlotInput struct {
	Date            time.Time
	StartsAt        time.Time
	EndsAt          time.Time
	DurationMinutes int
}

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(
	ctx context.Context,
	input CreateSlotInput,
) (*models.Slot, error) {
	query := `
		INSERT INTO slots (slot_date, starts_at, ends_at, duration_min)
		VALUES ($1, $2, $3, $4)
		RETURNING id, slot_date, starts_at, ends_at, duration_min, created_at
	`

	var slot models.Slot
	err := r.db.QueryRow(
		ctx,
		query,
		input.Date,
		input.StartsAt,
		input.EndsAt,
		input.DurationMinutes,
	).Scan(
		&slot.ID,
		&slot.Date,
		&slot.StartsAt,
		&slot.EndsAt,
		&slot.DurationMinutes,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) GetByID(ctx context.Context, slotID int64) (*models.Slot, error) {
	query := `
		SELECT id, slot_date, starts_at, ends_at, duration_min, created_at
		FROM slots
		WHERE id = $1
	`
	var slot models.Slot
	err := r.db.QueryRow(ctx, query, slotID).Scan(
		&slot.ID,
		&slot.Date,
		&slot.StartsAt,
		&slot.EndsAt,
		&slot.DurationMinutes,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM slots WHERE slot_date = $1`, date)
	return err
}

func (r *SlotRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Slot, error) {
	query := `
		SELECT id, slot_date, starts_at, ends_at, duration_min, created_at
		FROM slots
		WHERE slot_date = $1
		ORDER BY starts_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSlots(rows)
}

// ListAvailableForPair returns the date's slots that carry no pending or
// approved booking between the two accounts, either role orientation.
func (r *SlotRepository) ListAvailableForPair(
	ctx context.Context,
	date time.Time,
	firstID string,
	secondID string,
) ([]models.Slot, error) {
	query := `
		SELECT s.id, s.slot_date, s.starts_at, s.ends_at, s.duration_min, s.created_at
		FROM slots s
		WHERE s.slot_date = $1
		  AND NOT EXISTS (
			SELECT 1
			FROM pair_bookings b
			WHERE b.slot_id = s.id
			  AND b.status IN ('pending', 'approved')
			  AND LEAST(b.requester_id, b.counterpart_id) = LEAST($2::text, $3::text)
			  AND GREATEST(b.requester_id, b.counterpart_id) = GREATEST($2::text, $3::text)
		  )
		ORDER BY s.starts_at ASC, s.id ASC
	`
	rows, err := r.db.Query(ctx, query, date, firstID, secondID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSlots(rows)
}

func scanSlots(rows pgx.Rows) ([]models.Slot, error) {
	slots := make([]models.Slot, 0)
	for rows.Next() {
		var slot models.Slot
		if err := rows.Scan(
			&slot.ID,
			&slot.Date,
			&slot.StartsAt,
			&slot.EndsAt,
			&slot.DurationMinutes,
			&slot.CreatedAt,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}
