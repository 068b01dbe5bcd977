package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Integration tests run against a real Postgres with the migrations applied.
// They skip unless DB_URL is set.

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL not set")
			return
		}

		config, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		pool, err := pgxpool.NewWithConfig(context.Background(), config)
		if err != nil {
			testDBErr = err
			return
		}
		if err := pool.Ping(context.Background()); err != nil {
			testDBErr = err
			return
		}
		testDBPool = pool
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationBookingService(pool *pgxpool.Pool) *BookingService {
	return NewBookingService(pool, repository.NewBookingRepository(pool), repository.NewSlotRepository(pool), nil)
}

func newIntegrationSlotService(pool *pgxpool.Pool) *SlotService {
	return NewSlotService(pool, repository.NewSlotRepository(pool))
}

func newTestAccountID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func createTestSlots(t *testing.T, pool *pgxpool.Pool, date time.Time, start, end string, durationMinutes int) []models.Slot {
	t.Helper()

	slots, err := newIntegrationSlotService(pool).GenerateSlots(context.Background(), date, start, end, durationMinutes, false)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	return slots
}

// Deleting the slots cascades to their bookings.
func cleanupTestSlots(t *testing.T, pool *pgxpool.Pool, date time.Time) {
	t.Helper()
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM slots WHERE slot_date = $1", date)
		if err != nil {
			t.Logf("cleanup slots: %v", err)
		}
	})
}

func TestGenerateSlotsPersistsOrderedSet(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	service := newIntegrationSlotService(pool)

	created := createTestSlots(t, pool, date, "09:00", "09:30", 10)
	if len(created) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(created))
	}

	listed, err := service.ListSlots(ctx, date)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 listed slots, got %d", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if !listed[i].StartsAt.After(listed[i-1].StartsAt) {
			t.Fatalf("slots not ordered by start time at %d", i)
		}
	}

	// A second call without replace appends a fresh set.
	if _, err := service.GenerateSlots(ctx, date, "10:00", "10:30", 10, false); err != nil {
		t.Fatalf("GenerateSlots append: %v", err)
	}
	listed, err = service.ListSlots(ctx, date)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(listed) != 6 {
		t.Fatalf("expected 6 slots after append, got %d", len(listed))
	}

	// replace=true clears the date's slots first.
	if _, err := service.GenerateSlots(ctx, date, "09:00", "09:30", 10, true); err != nil {
		t.Fatalf("GenerateSlots replace: %v", err)
	}
	listed, err = service.ListSlots(ctx, date)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 slots after replace, got %d", len(listed))
	}
}

func TestBookingLifecycle(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 2, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:30", 10)
	slotID := slots[1].ID

	alpha := newTestAccountID()
	beta := newTestAccountID()
	gamma := newTestAccountID()
	service := newIntegrationBookingService(pool)

	booking, err := service.RequestBooking(ctx, alpha, beta, slotID)
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if booking.Status != models.BookingStatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if booking.DecidedAt != nil {
		t.Fatal("expected no decided_at on a pending booking")
	}

	// The same pair cannot claim the slot twice, in either role order.
	if _, err := service.RequestBooking(ctx, alpha, beta, slotID); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict on duplicate, got %v", err)
	}
	if _, err := service.RequestBooking(ctx, beta, alpha, slotID); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict on role swap, got %v", err)
	}

	// A different pair shares the same slot freely.
	if _, err := service.RequestBooking(ctx, alpha, gamma, slotID); err != nil {
		t.Fatalf("RequestBooking different pair: %v", err)
	}

	approved, err := service.ApproveBooking(ctx, booking.ID, beta)
	if err != nil {
		t.Fatalf("ApproveBooking: %v", err)
	}
	if approved.Status != models.BookingStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.DecidedAt == nil {
		t.Fatal("expected decided_at set on approval")
	}

	// Approved still blocks the pair.
	if _, err := service.RequestBooking(ctx, alpha, beta, slotID); !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict while approved, got %v", err)
	}

	cancelled, err := service.CancelBooking(ctx, booking.ID, alpha)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != models.BookingStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Cancelling frees the slot for the pair.
	rebooked, err := service.RequestBooking(ctx, beta, alpha, slotID)
	if err != nil {
		t.Fatalf("RequestBooking after cancel: %v", err)
	}
	if rebooked.ID == booking.ID {
		t.Fatal("expected a new booking row after cancel")
	}
}

func TestApproveBookingAuthorization(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 3, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:10", 10)

	alpha := newTestAccountID()
	beta := newTestAccountID()
	stranger := newTestAccountID()
	service := newIntegrationBookingService(pool)

	booking, err := service.RequestBooking(ctx, alpha, beta, slots[0].ID)
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}

	if _, err := service.ApproveBooking(ctx, booking.ID, alpha); !errors.Is(err, ErrForbidden) {
		t.Fatalf("requester approving own request: expected ErrForbidden, got %v", err)
	}
	if _, err := service.ApproveBooking(ctx, booking.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger approving: expected ErrForbidden, got %v", err)
	}
	if _, err := service.CancelBooking(ctx, booking.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancelling: expected ErrForbidden, got %v", err)
	}

	if _, err := service.ApproveBooking(ctx, booking.ID, beta); err != nil {
		t.Fatalf("counterpart approving: %v", err)
	}
	if _, err := service.ApproveBooking(ctx, booking.ID, beta); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approving twice: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelledBookingIsTerminal(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 4, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:10", 10)

	alpha := newTestAccountID()
	beta := newTestAccountID()
	service := newIntegrationBookingService(pool)

	booking, err := service.RequestBooking(ctx, alpha, beta, slots[0].ID)
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if _, err := service.CancelBooking(ctx, booking.ID, beta); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if _, err := service.ApproveBooking(ctx, booking.ID, beta); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approving cancelled: expected ErrInvalidState, got %v", err)
	}
	if _, err := service.CancelBooking(ctx, booking.ID, alpha); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancelling cancelled: expected ErrInvalidState, got %v", err)
	}
}

func TestRequestBookingUnknownSlot(t *testing.T) {
	pool := integrationTestPool(t)

	service := newIntegrationBookingService(pool)
	_, err := service.RequestBooking(context.Background(), newTestAccountID(), newTestAccountID(), 9223372036854775000)
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestConcurrentRequestsSingleWinner(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 5, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:10", 10)

	alpha := newTestAccountID()
	beta := newTestAccountID()
	service := newIntegrationBookingService(pool)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			requester, counterpart := alpha, beta
			if i%2 == 1 {
				requester, counterpart = beta, alpha
			}
			_, errs[i] = service.RequestBooking(ctx, requester, counterpart, slots[0].ID)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestListAvailableSlotsExcludesClaimedPair(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 6, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:30", 10)

	alpha := newTestAccountID()
	beta := newTestAccountID()
	gamma := newTestAccountID()
	bookingService := newIntegrationBookingService(pool)
	slotService := newIntegrationSlotService(pool)

	if _, err := bookingService.RequestBooking(ctx, alpha, beta, slots[1].ID); err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}

	available, err := slotService.ListAvailableSlots(ctx, date, beta, alpha)
	if err != nil {
		t.Fatalf("ListAvailableSlots: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available slots for the claimed pair, got %d", len(available))
	}
	for _, slot := range available {
		if slot.ID == slots[1].ID {
			t.Fatal("claimed slot should not appear as available for the pair")
		}
	}

	// The booking only blocks that pair.
	available, err = slotService.ListAvailableSlots(ctx, date, alpha, gamma)
	if err != nil {
		t.Fatalf("ListAvailableSlots: %v", err)
	}
	if len(available) != 3 {
		t.Fatalf("expected all 3 slots available for another pair, got %d", len(available))
	}
}

func TestListBookingsByRoleAndStatus(t *testing.T) {
	pool := integrationTestPool(t)
	ctx := context.Background()

	date := time.Date(2031, 3, 7, 0, 0, 0, 0, time.UTC)
	cleanupTestSlots(t, pool, date)
	slots := createTestSlots(t, pool, date, "09:00", "09:30", 10)

	alpha := newTestAccountID()
	beta := newTestAccountID()
	gamma := newTestAccountID()
	service := newIntegrationBookingService(pool)

	sent, err := service.RequestBooking(ctx, alpha, beta, slots[0].ID)
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if _, err := service.RequestBooking(ctx, gamma, alpha, slots[1].ID); err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}

	asRequester, err := service.ListBookings(ctx, alpha, models.BookingRoleRequester, "")
	if err != nil {
		t.Fatalf("ListBookings requester: %v", err)
	}
	if len(asRequester) != 1 || asRequester[0].ID != sent.ID {
		t.Fatalf("expected only the sent booking, got %+v", asRequester)
	}

	asCounterpart, err := service.ListBookings(ctx, alpha, models.BookingRoleCounterpart, "")
	if err != nil {
		t.Fatalf("ListBookings counterpart: %v", err)
	}
	if len(asCounterpart) != 1 || asCounterpart[0].RequesterID != gamma {
		t.Fatalf("expected only the received booking, got %+v", asCounterpart)
	}

	either, err := service.ListBookings(ctx, alpha, models.BookingRoleEither, "")
	if err != nil {
		t.Fatalf("ListBookings either: %v", err)
	}
	if len(either) != 2 {
		t.Fatalf("expected both bookings, got %d", len(either))
	}

	if _, err := service.ApproveBooking(ctx, sent.ID, beta); err != nil {
		t.Fatalf("ApproveBooking: %v", err)
	}
	approved, err := service.ListBookings(ctx, alpha, models.BookingRoleEither, models.BookingStatusApproved)
	if err != nil {
		t.Fatalf("ListBookings approved: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != sent.ID {
		t.Fatalf("expected the approved booking only, got %+v", approved)
	}
}
