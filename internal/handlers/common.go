package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Darshan-chovatiya/nexus-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Stable machine codes; the UI branches on these, not on the message text.
const (
	codeBadRequest    = "BAD_REQUEST"
	codeInvalidRange  = "INVALID_RANGE"
	codeSelfBooking   = "SELF_BOOKING"
	codeNotFound      = "NOT_FOUND"
	codeSlotConflict  = "SLOT_CONFLICT"
	codeInvalidState  = "INVALID_STATE"
	codeForbidden     = "FORBIDDEN"
	codeMalformedCode = "MALFORMED_CODE"
	codeSelfScan      = "SELF_SCAN"
	codeInternal      = "INTERNAL"
)

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

func accountIDFromLocals(c *fiber.Ctx) (string, error) {
	accountID, ok := c.Locals("account_id").(string)
	if !ok || !utils.IsAccountID(accountID) {
		return "", errors.New("missing account id")
	}
	return strings.ToLower(accountID), nil
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDateQuery(c *fiber.Ctx, key string) (string, bool) {
	value := strings.TrimSpace(c.Query(key))
	return value, value != ""
}
