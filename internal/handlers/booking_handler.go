package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type bookingApplicationService interface {
	RequestBooking(ctx context.Context, requesterID, counterpartID string, slotID int64) (*models.PairBooking, error)
	ApproveBooking(ctx context.Context, bookingID int64, approverID string) (*models.PairBooking, error)
	CancelBooking(ctx context.Context, bookingID int64, actorID string) (*models.PairBooking, error)
	GetBooking(ctx context.Context, bookingID int64, actorID string) (*models.PairBooking, error)
	ListBookings(ctx context.Context, accountID, role, status string) ([]models.PairBooking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type requestBookingRequest struct {
	CounterpartID string `json:"counterpart_id"`
	SlotID        int64  `json:"slot_id"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

func (h *BookingHandler) RequestBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	requesterID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	var req requestBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid request body")
	}

	booking, err := h.service.RequestBooking(c.Context(), requesterID, req.CounterpartID, req.SlotID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	bookings, err := h.service.ListBookings(
		c.Context(),
		accountID,
		strings.TrimSpace(c.Query("role")),
		strings.TrimSpace(c.Query("status")),
	)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid booking id")
	}

	booking, err := h.service.GetBooking(c.Context(), bookingID, accountID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

// UpdateStatus drives the approve/cancel workflow: the counterpart approves a
// pending booking, either party cancels a pending or approved one.
func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid booking id")
	}

	var req updateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid request body")
	}

	var booking *models.PairBooking
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "approve", "approved":
		booking, err = h.service.ApproveBooking(c.Context(), bookingID, accountID)
	case "cancel", "cancelled", "canceled":
		booking, err = h.service.CancelBooking(c.Context(), bookingID, accountID)
	default:
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "status must be approved or cancelled")
	}
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, services.ErrSelfBooking):
		return errorJSON(c, fiber.StatusForbidden, codeSelfBooking, "Cannot book a slot with yourself")
	case errors.Is(err, services.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	case errors.Is(err, services.ErrSlotConflict):
		return errorJSON(c, fiber.StatusConflict, codeSlotConflict, "Slot already claimed for this pair")
	case errors.Is(err, services.ErrInvalidState):
		return errorJSON(c, fiber.StatusUnprocessableEntity, codeInvalidState, err.Error())
	case errors.Is(err, services.ErrSlotNotFound):
		return errorJSON(c, fiber.StatusNotFound, codeNotFound, "Slot not found")
	case errors.Is(err, pgx.ErrNoRows):
		return errorJSON(c, fiber.StatusNotFound, codeNotFound, "Booking not found")
	default:
		return errorJSON(c, fiber.StatusInternalServerError, codeInternal, "Failed to process booking request")
	}
}
