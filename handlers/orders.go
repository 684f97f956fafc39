package handlers

import (
	"match-ticket-system/middleware"
	"match-ticket-system/models"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type purchaseRequest struct {
	MatchID    uint `json:"match_id"`
	NumTickets int  `json:"num_tickets"`
}

type batchPurchaseRequest struct {
	Matches []services.PurchaseItem `json:"matches"`
}

type orderResponse struct {
	OrderID   uint   `json:"orderId"`
	MatchID   uint   `json:"matchId"`
	Quantity  int    `json:"quantity"`
	AccountID string `json:"accountId"`
}

func newOrderResponse(o *models.Order) orderResponse {
	return orderResponse{OrderID: o.ID, MatchID: o.MatchID, Quantity: o.TicketsBought, AccountID: o.AccountID}
}

// Purchase buys tickets for a single match on behalf of the caller.
func (h *OrderHandler) Purchase(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid order payload")
	}

	order, err := h.Orders.PurchaseOne(c.UserContext(), user.ID, req.MatchID, req.NumTickets)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newOrderResponse(order))
}

// PurchaseBatch buys tickets for several matches at once, all or nothing.
func (h *OrderHandler) PurchaseBatch(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req batchPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid purchase payload")
	}

	ids, err := h.Orders.PurchaseMany(c.UserContext(), user.ID, req.Matches)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Purchase Successful",
		"orderIds": ids,
	})
}

func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	orders, err := h.Orders.ListAccountOrders(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	orders, err := h.Orders.ListOrders(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) ListForUser(c *fiber.Ctx) error {
	orders, err := h.Orders.ListAccountOrders(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id")
	}
	if err := h.Orders.DeleteOrder(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted successfully"})
}
