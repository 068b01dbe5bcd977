package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/repository"
	eventws "github.com/Darshan-chovatiya/nexus-backend/internal/websocket"
	"github.com/Darshan-chovatiya/nexus-backend/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrSelfBooking  = errors.New("cannot book a slot with yourself")
	ErrSlotConflict = errors.New("slot already claimed for this pair")
	ErrInvalidState = errors.New("invalid booking state")
	ErrSlotNotFound = errors.New("slot not found")
	ErrInvalidInput = errors.New("invalid input")
)

type eventPublisher interface {
	Publish(eventType, entityID, status string, accountIDs ...string)
}

type BookingService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	slotRepo    *repository.SlotRepository
	events      eventPublisher
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	slotRepo *repository.SlotRepository,
	events eventPublisher,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		events:      events,
	}
}

// RequestBooking claims the slot for the pair. The conflict check and the
// insert run under an advisory lock keyed by (slot, unordered pair), so two
// concurrent requests for the same pair cannot both pass the check; the
// partial unique index on pair_bookings backstops the invariant.
func (s *BookingService) RequestBooking(
	ctx context.Context,
	requesterID string,
	counterpartID string,
	slotID int64,
) (*models.PairBooking, error) {
	requesterID = strings.ToLower(strings.TrimSpace(requesterID))
	counterpartID = strings.ToLower(strings.TrimSpace(counterpartID))
	if !utils.IsAccountID(requesterID) || !utils.IsAccountID(counterpartID) || slotID <= 0 {
		return nil, ErrInvalidInput
	}
	if requesterID == counterpartID {
		return nil, ErrSelfBooking
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txSlotRepo := repository.NewSlotRepository(tx)

	lockKey := pairLockKey(slotID, requesterID, counterpartID)
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", lockKey); err != nil {
		return nil, err
	}

	if _, err := txSlotRepo.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	taken, err := txBookingRepo.ExistsActiveForPair(ctx, slotID, requesterID, counterpartID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotConflict
	}

	booking, err := txBookingRepo.Create(ctx, slotID, requesterID, counterpartID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publishBookingEvent(booking)
	return booking, nil
}

// ApproveBooking moves a pending booking to approved. Only the recorded
// counterpart may approve; the requester approving their own request is
// forbidden.
func (s *BookingService) ApproveBooking(
	ctx context.Context,
	bookingID int64,
	approverID string,
) (*models.PairBooking, error) {
	approverID = strings.ToLower(strings.TrimSpace(approverID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if approverID != booking.CounterpartID {
		return nil, ErrForbidden
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrInvalidState
	}

	approved, err := s.bookingRepo.UpdateStatusIfCurrent(
		ctx,
		bookingID,
		models.BookingStatusPending,
		models.BookingStatusApproved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	s.publishBookingEvent(approved)
	return approved, nil
}

// CancelBooking cancels a pending or approved booking on behalf of either
// party, freeing the slot for that pair. Cancelled is terminal.
func (s *BookingService) CancelBooking(
	ctx context.Context,
	bookingID int64,
	actorID string,
) (*models.PairBooking, error) {
	actorID = strings.ToLower(strings.TrimSpace(actorID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OtherParty(actorID) == "" {
		return nil, ErrForbidden
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, ErrInvalidState
	}

	cancelled, err := s.bookingRepo.CancelIfActive(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	s.publishBookingEvent(cancelled)
	return cancelled, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	bookingID int64,
	actorID string,
) (*models.PairBooking, error) {
	actorID = strings.ToLower(strings.TrimSpace(actorID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OtherParty(actorID) == "" {
		return nil, ErrForbidden
	}
	return booking, nil
}

// ListBookings backs the "booked", "sent" and "received" tabs: role selects
// which side of the pair the account is on.
func (s *BookingService) ListBookings(
	ctx context.Context,
	accountID string,
	role string,
	status string,
) ([]models.PairBooking, error) {
	accountID = strings.ToLower(strings.TrimSpace(accountID))

	role = strings.TrimSpace(role)
	if role == "" {
		role = models.BookingRoleEither
	}
	switch role {
	case models.BookingRoleRequester, models.BookingRoleCounterpart, models.BookingRoleEither:
	default:
		return nil, ErrInvalidInput
	}

	status = strings.TrimSpace(status)
	switch status {
	case "", models.BookingStatusPending, models.BookingStatusApproved, models.BookingStatusCancelled:
	default:
		return nil, ErrInvalidInput
	}

	return s.bookingRepo.List(ctx, repository.BookingListFilter{
		AccountID: accountID,
		Role:      role,
		Status:    status,
	})
}

func (s *BookingService) publishBookingEvent(booking *models.PairBooking) {
	if s.events == nil {
		return
	}
	s.events.Publish(
		eventws.EventTypeBooking,
		strconv.FormatInt(booking.ID, 10),
		booking.Status,
		booking.RequesterID,
		booking.CounterpartID,
	)
}

func pairLockKey(slotID int64, firstID, secondID string) string {
	low, high := firstID, secondID
	if high < low {
		low, high = high, low
	}
	return fmt.Sprintf("%d:%s:%s", slotID, low, high)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
