package services

import (
	"context"
	"errors"
	"log"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
)

type bookingLister interface {
	ListBookings(ctx context.Context, accountID, role, status string) ([]models.PairBooking, error)
}

type scanLister interface {
	ListScansOf(ctx context.Context, accountID string, page, limit int) ([]models.ScanRecord, int, error)
	ListScansBy(ctx context.Context, accountID string, page, limit int) ([]models.ScanRecord, int, error)
}

type slotReader interface {
	GetByID(ctx context.Context, slotID int64) (*models.Slot, error)
}

type accountResolver interface {
	Resolve(ctx context.Context, accountID string) (*models.AccountProfile, error)
}

// ViewService is the query facade: pure read composition joining bookings and
// scans with directory lookups. It holds no state of its own.
type ViewService struct {
	bookings  bookingLister
	scans     scanLister
	slots     slotReader
	directory accountResolver
}

func NewViewService(
	bookings bookingLister,
	scans scanLister,
	slots slotReader,
	directory accountResolver,
) *ViewService {
	return &ViewService{
		bookings:  bookings,
		scans:     scans,
		slots:     slots,
		directory: directory,
	}
}

// BookingViews projects each booking relative to the viewer: direction is
// "sent" when the viewer requested it and "received" when the viewer is the
// counterpart, with the other party's profile attached.
func (s *ViewService) BookingViews(
	ctx context.Context,
	accountID string,
	role string,
	status string,
) ([]models.BookingView, error) {
	bookings, err := s.bookings.ListBookings(ctx, accountID, role, status)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*models.AccountProfile)
	slots := make(map[int64]*models.Slot)

	views := make([]models.BookingView, 0, len(bookings))
	for _, booking := range bookings {
		direction := models.DirectionReceived
		if booking.RequesterID == accountID {
			direction = models.DirectionSent
		}

		view := models.BookingView{
			PairBooking: booking,
			Direction:   direction,
			Counterpart: s.resolveOrPlaceholder(ctx, profiles, booking.OtherParty(accountID)),
		}

		if slot, ok := slots[booking.SlotID]; ok {
			view.Slot = slot
		} else if slot, err := s.slots.GetByID(ctx, booking.SlotID); err == nil {
			slots[booking.SlotID] = slot
			view.Slot = slot
		}

		views = append(views, view)
	}

	return views, nil
}

// ScanViews joins the account's scan history with the other party's profile.
// direction selects "received" (who scanned me) or "sent" (who I scanned).
func (s *ViewService) ScanViews(
	ctx context.Context,
	accountID string,
	direction string,
	page int,
	limit int,
) ([]models.ScanView, int, error) {
	var (
		records []models.ScanRecord
		total   int
		err     error
	)
	switch direction {
	case models.DirectionSent:
		records, total, err = s.scans.ListScansBy(ctx, accountID, page, limit)
	case models.DirectionReceived:
		records, total, err = s.scans.ListScansOf(ctx, accountID, page, limit)
	default:
		return nil, 0, ErrInvalidInput
	}
	if err != nil {
		return nil, 0, err
	}

	profiles := make(map[string]*models.AccountProfile)

	views := make([]models.ScanView, 0, len(records))
	for _, record := range records {
		otherID := record.ScannerID
		if direction == models.DirectionSent {
			otherID = record.ScannedID
		}
		views = append(views, models.ScanView{
			ScanRecord: record,
			Direction:  direction,
			Account:    s.resolveOrPlaceholder(ctx, profiles, otherID),
		})
	}

	return views, total, nil
}

// A failed directory lookup degrades to a placeholder so one missing account
// never fails the whole view.
func (s *ViewService) resolveOrPlaceholder(
	ctx context.Context,
	memo map[string]*models.AccountProfile,
	accountID string,
) *models.AccountProfile {
	if profile, ok := memo[accountID]; ok {
		return profile
	}
	if s.directory == nil {
		return &models.AccountProfile{ID: accountID, Name: "Unknown account"}
	}

	profile, err := s.directory.Resolve(ctx, accountID)
	if err != nil {
		if !isNotFound(err) {
			log.Printf("directory resolve %s: %v", accountID, err)
		}
		profile = &models.AccountProfile{ID: accountID, Name: "Unknown account"}
	}

	memo[accountID] = profile
	return profile
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
