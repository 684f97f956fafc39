package handlers

import (
	"context"
	"time"

	"match-ticket-system/models"
	"match-ticket-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AvailabilitySnapshot serves cached availability; errors fall back to the store.
type AvailabilitySnapshot interface {
	Snapshot(ctx context.Context) (map[uint]int, error)
}

type MatchHandler struct {
	Matches *services.MatchService
	Cache   AvailabilitySnapshot
}

type matchTeamJSON struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type matchCompetitionJSON struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Sport    models.Sport    `json:"sport"`
}

// matchJSON is the listing shape: teams and competition inlined.
type matchJSON struct {
	ID          uint                 `json:"id"`
	Local       matchTeamJSON        `json:"local"`
	Visitor     matchTeamJSON        `json:"visitor"`
	Date        time.Time            `json:"date"`
	Tickets     int                  `json:"tickets"`
	Competition matchCompetitionJSON `json:"competition"`
	Price       decimal.Decimal      `json:"price"`
}

func toMatchJSON(m models.Match) matchJSON {
	out := matchJSON{
		ID:      m.ID,
		Date:    m.Date,
		Tickets: m.AvailableTickets,
		Price:   m.Price,
		Local:   matchTeamJSON{ID: m.LocalID},
		Visitor: matchTeamJSON{ID: m.VisitorID},
	}
	if m.LocalTeam != nil {
		out.Local.Name, out.Local.Country = m.LocalTeam.Name, m.LocalTeam.Country
	}
	if m.VisitorTeam != nil {
		out.Visitor.Name, out.Visitor.Country = m.VisitorTeam.Name, m.VisitorTeam.Country
	}
	if m.Competition != nil {
		out.Competition = matchCompetitionJSON{Name: m.Competition.Name, Category: m.Competition.Category, Sport: m.Competition.Sport}
	}
	return out
}

func (h *MatchHandler) List(c *fiber.Ctx) error {
	matches, err := h.Matches.ListMatches(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]matchJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchJSON(m))
	}
	return c.JSON(fiber.Map{"matches": out})
}

func (h *MatchHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid match id")
	}
	m, err := h.Matches.GetMatch(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// Availability returns tickets left per match id.
func (h *MatchHandler) Availability(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if h.Cache != nil {
		// An empty hash means the cache was never filled or was flushed.
		if snapshot, err := h.Cache.Snapshot(ctx); err == nil && len(snapshot) > 0 {
			return c.JSON(fiber.Map{"availability": snapshot, "source": "cache"})
		}
	}
	availability, err := h.Matches.Availability(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"availability": availability, "source": "store"})
}

func (h *MatchHandler) Create(c *fiber.Ctx) error {
	var in services.MatchInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid match payload")
	}
	m, err := h.Matches.CreateMatch(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Match created successfully",
		"id":      m.ID,
	})
}

func (h *MatchHandler) Update(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid match id")
	}
	var upd models.MatchUpdate
	if err := c.BodyParser(&upd); err != nil {
		return badRequest(c, "Invalid match payload")
	}
	m, err := h.Matches.UpdateMatch(c.UserContext(), id, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Match updated successfully",
		"match":   m,
	})
}

func (h *MatchHandler) Delete(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid match id")
	}
	if err := h.Matches.DeleteMatch(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Match deleted successfully"})
}
