package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type viewApplicationService interface {
	BookingViews(ctx context.Context, accountID, role, status string) ([]models.BookingView, error)
	ScanViews(ctx context.Context, accountID, direction string, page, limit int) ([]models.ScanView, int, error)
}

// ViewHandler exposes the display-ready projections: bookings and scans joined
// with resolved directory profiles.
type ViewHandler struct {
	service viewApplicationService
}

func NewViewHandler(service *services.ViewService) *ViewHandler {
	return &ViewHandler{service: service}
}

func (h *ViewHandler) BookingViews(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	views, err := h.service.BookingViews(
		c.Context(),
		accountID,
		strings.TrimSpace(c.Query("role")),
		strings.TrimSpace(c.Query("status")),
	)
	if err != nil {
		return mapViewError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": views})
}

func (h *ViewHandler) ScanViews(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	direction := strings.TrimSpace(c.Query("direction"))
	if direction == "" {
		direction = models.DirectionReceived
	}

	page, limit := parsePageAndLimit(c.Query("page"), c.Query("limit"))

	views, total, err := h.service.ScanViews(c.Context(), accountID, direction, page, limit)
	if err != nil {
		return mapViewError(c, err)
	}

	return c.JSON(fiber.Map{
		"scans":      views,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func mapViewError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, codeInternal, "Failed to load view")
	}
}
