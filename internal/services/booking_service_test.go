package services

import (
	"context"
	"errors"
	"testing"
)

func TestRequestBookingRejectsSelfPair(t *testing.T) {
	service := NewBookingService(nil, nil, nil, nil)
	accountID := "64f1b2c3d4e5f60718293a4b"

	_, err := service.RequestBooking(context.Background(), accountID, accountID, 1)
	if !errors.Is(err, ErrSelfBooking) {
		t.Fatalf("expected ErrSelfBooking, got %v", err)
	}
}

func TestRequestBookingValidatesAccountIDs(t *testing.T) {
	service := NewBookingService(nil, nil, nil, nil)

	cases := []struct {
		name        string
		requester   string
		counterpart string
		slotID      int64
	}{
		{"short requester", "abc", "64f1b2c3d4e5f60718293a4b", 1},
		{"non hex counterpart", "64f1b2c3d4e5f60718293a4b", "64f1b2c3d4e5f60718293a4g", 1},
		{"zero slot", "64f1b2c3d4e5f60718293a4b", "74f1b2c3d4e5f60718293a4b", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.RequestBooking(context.Background(), tc.requester, tc.counterpart, tc.slotID)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestListBookingsValidatesRoleAndStatus(t *testing.T) {
	service := NewBookingService(nil, nil, nil, nil)
	accountID := "64f1b2c3d4e5f60718293a4b"

	if _, err := service.ListBookings(context.Background(), accountID, "owner", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got %v", err)
	}
	if _, err := service.ListBookings(context.Background(), accountID, "either", "rejected"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad status, got %v", err)
	}
}
