package handlers

import (
	"match-ticket-system/middleware"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

type createAccountRequest struct {
	AvailableMoney *decimal.Decimal `json:"available_money"`
}

type setMoneyRequest struct {
	Money *decimal.Decimal `json:"money"`
}

// Create opens an account for the caller. Without available_money the
// starting balance is drawn at random.
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req createAccountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid account payload")
		}
	}

	account, err := h.Accounts.CreateAccount(c.UserContext(), user.ID, req.AvailableMoney)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) Money(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	account, err := h.Accounts.GetAccount(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"money": account.Balance})
}

func (h *AccountHandler) SetMoney(c *fiber.Ctx) error {
	var req setMoneyRequest
	if err := c.BodyParser(&req); err != nil || req.Money == nil {
		return badRequest(c, "money is required")
	}
	account, err := h.Accounts.SetBalance(c.UserContext(), c.Params("user_id"), *req.Money)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(account)
}
