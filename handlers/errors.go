package handlers

import (
	"errors"
	"log/slog"

	"match-ticket-system/models"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[services.Kind]int{
	services.KindNoAccount:             fiber.StatusNotFound,
	services.KindMatchNotFound:         fiber.StatusNotFound,
	services.KindTeamNotFound:          fiber.StatusNotFound,
	services.KindCompetitionNotFound:   fiber.StatusNotFound,
	services.KindOrderNotFound:         fiber.StatusNotFound,
	services.KindValidation:            fiber.StatusBadRequest,
	services.KindBelowMinimum:          fiber.StatusBadRequest,
	services.KindDuplicateTeamInMatch:  fiber.StatusBadRequest,
	services.KindTeamNotInCompetition:  fiber.StatusBadRequest,
	services.KindInsufficientInventory: fiber.StatusConflict,
	services.KindRaceLostInventory:     fiber.StatusConflict,
	services.KindRaceLostFunds:         fiber.StatusConflict,
	services.KindAlreadyExists:         fiber.StatusConflict,
	services.KindInsufficientFunds:     fiber.StatusPaymentRequired,
}

// StatusFor maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusFor(kind services.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes a domain error as {error_kind, error, ...}. Anything
// that is not a domain error is logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var domainErr *services.Error
	if !errors.As(err, &domainErr) {
		slog.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_kind": "INTERNAL",
			"error":      "Internal server error",
			"retryable":  false,
		})
	}

	body := fiber.Map{
		"error_kind": domainErr.Kind,
		"error":      domainErr.Message,
		"retryable":  domainErr.Retryable(),
	}
	if domainErr.MatchID != 0 {
		body["match_id"] = domainErr.MatchID
	}
	if domainErr.Balance != nil {
		body["available_money"] = models.FormatMoney(*domainErr.Balance)
	}
	if domainErr.Cost != nil {
		body["total_cost"] = models.FormatMoney(*domainErr.Cost)
	}
	return c.Status(StatusFor(domainErr.Kind)).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error_kind": services.KindValidation,
		"error":      msg,
		"retryable":  false,
	})
}

// idParam reads a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
