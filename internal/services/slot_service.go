package services

import (
	"context"
	"errors"
	"time"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidRange = errors.New("invalid slot range")

type SlotService struct {
	db       *pgxpool.Pool
	slotRepo *repository.SlotRepository
}

func NewSlotService(db *pgxpool.Pool, slotRepo *repository.SlotRepository) *SlotService {
	return &SlotService{
		db:       db,
		slotRepo: slotRepo,
	}
}

// GenerateSlots writes the full generated set for the date in one transaction,
// so readers never observe a partial set. Repeated calls append; replace=true
// clears the date's existing slots first. The final interval is clamped to
// endTime and may be shorter than the configured duration when the range does
// not divide evenly.
func (s *SlotService) GenerateSlots(
	ctx context.Context,
	date time.Time,
	startTime string,
	endTime string,
	durationMinutes int,
	replace bool,
) ([]models.Slot, error) {
	inputs, err := buildSlotIntervals(date, startTime, endTime, durationMinutes)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSlotRepo := repository.NewSlotRepository(tx)

	if replace {
		if err := txSlotRepo.DeleteByDate(ctx, normalizeDate(date)); err != nil {
			return nil, err
		}
	}

	slots := make([]models.Slot, 0, len(inputs))
	for _, input := range inputs {
		slot, err := txSlotRepo.Create(ctx, input)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return slots, nil
}

func (s *SlotService) ListSlots(ctx context.Context, date time.Time) ([]models.Slot, error) {
	return s.slotRepo.ListByDate(ctx, normalizeDate(date))
}

// ListAvailableSlots returns the date's slots that the viewer could still
// request with the counterpart: slots carrying no pending or approved booking
// between the two, in either role.
func (s *SlotService) ListAvailableSlots(
	ctx context.Context,
	date time.Time,
	viewerID string,
	counterpartID string,
) ([]models.Slot, error) {
	return s.slotRepo.ListAvailableForPair(ctx, normalizeDate(date), viewerID, counterpartID)
}

func buildSlotIntervals(
	date time.Time,
	startTime string,
	endTime string,
	durationMinutes int,
) ([]repository.CreateSlotInput, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidRange
	}

	start, err := combineDateAndClock(date, startTime)
	if err != nil {
		return nil, ErrInvalidRange
	}
	end, err := combineDateAndClock(date, endTime)
	if err != nil {
		return nil, ErrInvalidRange
	}
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	duration := time.Duration(durationMinutes) * time.Minute
	day := normalizeDate(date)

	inputs := make([]repository.CreateSlotInput, 0)
	for cursor := start; cursor.Before(end); cursor = cursor.Add(duration) {
		slotEnd := cursor.Add(duration)
		if slotEnd.After(end) {
			slotEnd = end
		}
		inputs = append(inputs, repository.CreateSlotInput{
			Date:            day,
			StartsAt:        cursor,
			EndsAt:          slotEnd,
			DurationMinutes: int(slotEnd.Sub(cursor) / time.Minute),
		})
	}

	return inputs, nil
}

func combineDateAndClock(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	day := normalizeDate(date)
	return day.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute), nil
}

// Slot times are timezone-naive calendar values; everything is kept in UTC.
func normalizeDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
