package handlers

import (
	"match-ticket-system/models"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
)

type CompetitionHandler struct {
	Competitions *services.CompetitionService
}

func (h *CompetitionHandler) GetByName(c *fiber.Ctx) error {
	comp, err := h.Competitions.GetByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comp)
}

// GetByID is GET /competitions?competition_id=N.
func (h *CompetitionHandler) GetByID(c *fiber.Ctx) error {
	id := c.QueryInt("competition_id")
	if id <= 0 {
		return badRequest(c, "competition_id query parameter is required")
	}
	comp, err := h.Competitions.GetByID(c.UserContext(), uint(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comp)
}

func (h *CompetitionHandler) Create(c *fiber.Ctx) error {
	var in services.CompetitionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid competition payload")
	}
	comp, err := h.Competitions.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comp)
}

func (h *CompetitionHandler) Update(c *fiber.Ctx) error {
	var upd models.CompetitionUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid competition payload")
	}
	comp, err := h.Competitions.Update(c.UserContext(), c.Params("name"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comp)
}

func (h *CompetitionHandler) Delete(c *fiber.Ctx) error {
	comp, err := h.Competitions.Delete(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Competition " + comp.Name + " deleted successfully"})
}
