package handlers

import (
	"match-ticket-system/models"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
)

type TeamHandler struct {
	Teams *services.TeamService
}

func (h *TeamHandler) List(c *fiber.Ctx) error {
	teams, err := h.Teams.ListTeams(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"teams": teams})
}

func (h *TeamHandler) Get(c *fiber.Ctx) error {
	team, err := h.Teams.GetTeam(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(team)
}

// UpsertByName updates a team, creating it when the body carries enough to do so.
func (h *TeamHandler) UpsertByName(c *fiber.Ctx) error {
	var upd models.TeamUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid team payload")
	}
	team, err := h.Teams.UpsertByName(c.UserContext(), c.Params("name"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(team)
}

// UpsertByID is PUT /teams?team_id=N.
func (h *TeamHandler) UpsertByID(c *fiber.Ctx) error {
	id := c.QueryInt("team_id")
	if id <= 0 {
		return badRequest(c, "team_id query parameter is required")
	}
	var upd models.TeamUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid team payload")
	}
	team, err := h.Teams.UpsertByID(c.UserContext(), uint(id), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(team)
}

func (h *TeamHandler) Delete(c *fiber.Ctx) error {
	team, err := h.Teams.DeleteTeam(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Team " + team.Name + " deleted successfully"})
}

// UploadCrest takes a multipart "crest" file.
func (h *TeamHandler) UploadCrest(c *fiber.Ctx) error {
	fh, err := c.FormFile("crest")
	if err != nil {
		return badRequest(c, "crest file is required")
	}
	team, err := h.Teams.UploadCrest(c.UserContext(), c.Params("name"), fh)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(team)
}
