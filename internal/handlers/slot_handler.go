package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	"github.com/Darshan-chovatiya/nexus-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type slotApplicationService interface {
	GenerateSlots(ctx context.Context, date time.Time, startTime, endTime string, durationMinutes int, replace bool) ([]models.Slot, error)
	ListSlots(ctx context.Context, date time.Time) ([]models.Slot, error)
	ListAvailableSlots(ctx context.Context, date time.Time, viewerID, counterpartID string) ([]models.Slot, error)
}

type SlotHandler struct {
	service slotApplicationService
}

func NewSlotHandler(service *services.SlotService) *SlotHandler {
	return &SlotHandler{service: service}
}

type generateSlotsRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Replace         bool   `json:"replace"`
}

func (h *SlotHandler) GenerateSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "admin" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	var req generateSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid request body")
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "date must be formatted as YYYY-MM-DD")
	}

	slots, err := h.service.GenerateSlots(
		c.Context(),
		date,
		strings.TrimSpace(req.StartTime),
		strings.TrimSpace(req.EndTime),
		req.DurationMinutes,
		req.Replace,
	)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slots": slots})
}

func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "company" && role != "admin") {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	dateQuery, ok := parseDateQuery(c, "date")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "date query parameter is required")
	}
	date, err := time.Parse("2006-01-02", dateQuery)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "date must be formatted as YYYY-MM-DD")
	}

	slots, err := h.service.ListSlots(c.Context(), date)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func (h *SlotHandler) ListAvailableSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	viewerID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	dateQuery, ok := parseDateQuery(c, "date")
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "date query parameter is required")
	}
	date, err := time.Parse("2006-01-02", dateQuery)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "date must be formatted as YYYY-MM-DD")
	}

	counterpartID := strings.ToLower(strings.TrimSpace(c.Query("counterpart_id")))
	if !utils.IsAccountID(counterpartID) {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "counterpart_id must be a valid account id")
	}

	slots, err := h.service.ListAvailableSlots(c.Context(), date, viewerID, counterpartID)
	if err != nil {
		return mapSlotError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func mapSlotError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidRange):
		return errorJSON(c, fiber.StatusBadRequest, codeInvalidRange, err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, codeInternal, "Failed to process slot request")
	}
}
