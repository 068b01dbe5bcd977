package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type scanApplicationService interface {
	RecordScan(ctx context.Context, scannerID, codePayload string) (*models.ScanRecord, error)
	ListScansOf(ctx context.Context, accountID string, page, limit int) ([]models.ScanRecord, int, error)
	ListScansBy(ctx context.Context, accountID string, page, limit int) ([]models.ScanRecord, int, error)
}

type ScanHandler struct {
	service scanApplicationService
}

func NewScanHandler(service *services.ScanService) *ScanHandler {
	return &ScanHandler{service: service}
}

type recordScanRequest struct {
	Code string `json:"code"`
}

func (h *ScanHandler) RecordScan(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	scannerID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	var req recordScanRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, "code is required")
	}

	record, err := h.service.RecordScan(c.Context(), scannerID, req.Code)
	if err != nil {
		return mapScanError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"scan": record})
}

func (h *ScanHandler) ListReceived(c *fiber.Ctx) error {
	return h.list(c, models.DirectionReceived)
}

func (h *ScanHandler) ListSent(c *fiber.Ctx) error {
	return h.list(c, models.DirectionSent)
}

func (h *ScanHandler) list(c *fiber.Ctx, direction string) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	accountID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	page, limit := parsePageAndLimit(c.Query("page"), c.Query("limit"))

	var (
		records []models.ScanRecord
		total   int
	)
	if direction == models.DirectionSent {
		records, total, err = h.service.ListScansBy(c.Context(), accountID, page, limit)
	} else {
		records, total, err = h.service.ListScansOf(c.Context(), accountID, page, limit)
	}
	if err != nil {
		return mapScanError(c, err)
	}

	return c.JSON(fiber.Map{
		"scans":      records,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func mapScanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMalformedCode):
		return errorJSON(c, fiber.StatusBadRequest, codeMalformedCode, "Invalid QR code format")
	case errors.Is(err, services.ErrSelfScan):
		return errorJSON(c, fiber.StatusForbidden, codeSelfScan, "Cannot scan your own code")
	case errors.Is(err, services.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, codeBadRequest, err.Error())
	default:
		return errorJSON(c, fiber.StatusInternalServerError, codeInternal, "Failed to process scan request")
	}
}
