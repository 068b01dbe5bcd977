package handlers

import (
	"github.com/Darshan-chovatiya/nexus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AccountHandler proxies the external identity directory's browse list: the
// accounts a viewer can pick a counterpart from.
type AccountHandler struct {
	directory services.DirectoryService
}

func NewAccountHandler(directory services.DirectoryService) *AccountHandler {
	return &AccountHandler{directory: directory}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "company" {
		return errorJSON(c, fiber.StatusForbidden, codeForbidden, "Forbidden")
	}

	viewerID, err := accountIDFromLocals(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, codeForbidden, "Invalid token")
	}

	if h.directory == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, codeInternal, "Directory is not configured")
	}

	page, limit := parsePageAndLimit(c.Query("page"), c.Query("limit"))

	accounts, total, err := h.directory.ListOthers(c.Context(), viewerID, page, limit)
	if err != nil {
		return errorJSON(c, fiber.StatusBadGateway, codeInternal, "Failed to load accounts")
	}

	return c.JSON(fiber.Map{
		"accounts":   accounts,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
