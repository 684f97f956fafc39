package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/shopspring/decimal"
)

// MatchInput is what an administrator sends to schedule a match.
// A nil AvailableTickets defaults to NumberOfSeats.
type MatchInput struct {
	Date             time.Time       `json:"date"`
	Price            decimal.Decimal `json:"price"`
	NumberOfSeats    int             `json:"number_of_seats"`
	AvailableTickets *int            `json:"total_available_tickets"`
	CompetitionID    uint            `json:"competition_id"`
	LocalID          uint            `json:"local_id"`
	VisitorID        uint            `json:"visitor_id"`
}

type MatchService struct {
	Store     store.Store
	Publisher AvailabilityPublisher
}

func NewMatchService(s store.Store, publisher AvailabilityPublisher) *MatchService {
	return &MatchService{Store: s, Publisher: publisher}
}

func (s *MatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	return s.Store.ListMatches(ctx)
}

func (s *MatchService) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	m, err := s.Store.GetMatch(ctx, id)
	if err != nil {
		return nil, lookupError(err, matchNotFound(id))
	}
	return m, nil
}

// CreateMatch validates in this order: price, seats, availability, distinct
// teams, teams exist, competition exists, both teams registered.
func (s *MatchService) CreateMatch(ctx context.Context, in MatchInput) (*models.Match, error) {
	price := models.RoundMoney(in.Price)
	if price.IsNegative() {
		return nil, validationError("Price cannot be negative")
	}
	if in.NumberOfSeats < 0 {
		return nil, validationError("The number of seats cannot be negative")
	}
	available := in.NumberOfSeats
	if in.AvailableTickets != nil {
		available = *in.AvailableTickets
	}
	if available < 0 {
		return nil, validationError("Tickets available cannot be negative")
	}
	if available > in.NumberOfSeats {
		return nil, validationError("More available tickets than number of seats")
	}
	if in.LocalID == in.VisitorID {
		return nil, newError(KindDuplicateTeamInMatch, "The local and visitor teams must be different")
	}

	if _, err := s.Store.GetTeam(ctx, in.LocalID); err != nil {
		return nil, lookupError(err, newError(KindTeamNotFound, "The local team does not exist"))
	}
	if _, err := s.Store.GetTeam(ctx, in.VisitorID); err != nil {
		return nil, lookupError(err, newError(KindTeamNotFound, "The visitor team does not exist"))
	}
	comp, err := s.Store.GetCompetition(ctx, in.CompetitionID)
	if err != nil {
		return nil, lookupError(err, newError(KindCompetitionNotFound, "The competition does not exist"))
	}
	if !comp.HasTeam(in.LocalID) {
		return nil, newError(KindTeamNotInCompetition, "The local team is not registered in the competition")
	}
	if !comp.HasTeam(in.VisitorID) {
		return nil, newError(KindTeamNotInCompetition, "The visitor team is not registered in the competition")
	}

	m := &models.Match{
		Date:             in.Date,
		Price:            price,
		NumberOfSeats:    in.NumberOfSeats,
		AvailableTickets: available,
		CompetitionID:    in.CompetitionID,
		LocalID:          in.LocalID,
		VisitorID:        in.VisitorID,
	}
	if err := s.Store.CreateMatch(ctx, m); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "match created", "match_id", m.ID, "competition_id", m.CompetitionID, "tickets", available)
	s.publish(ctx, m)
	return m, nil
}

// UpdateMatch changes date, price or availability. Availability may only go
// down: tickets already sold must not be put back on sale.
func (s *MatchService) UpdateMatch(ctx context.Context, id uint, upd models.MatchUpdate) (*models.Match, error) {
	var price *decimal.Decimal
	if upd.Price != nil {
		p := models.RoundMoney(*upd.Price)
		if p.IsNegative() {
			return nil, validationError("Price cannot be negative")
		}
		price = &p
	}

	m, err := s.Store.UpdateMatchFunc(ctx, id, func(m *models.Match) error {
		if upd.AvailableTickets != nil {
			available := *upd.AvailableTickets
			if available > m.AvailableTickets {
				return validationError("Increased number of tickets (before: %d), users may lose their seats", m.AvailableTickets)
			}
			if available < 0 {
				return validationError("Tickets available cannot be negative")
			}
			m.AvailableTickets = available
		}
		if upd.Date != nil {
			m.Date = *upd.Date
		}
		if price != nil {
			m.Price = *price
		}
		return nil
	})
	if err != nil {
		return nil, lookupError(err, matchNotFound(id))
	}
	s.publish(ctx, m)
	return m, nil
}

func (s *MatchService) DeleteMatch(ctx context.Context, id uint) error {
	if err := s.Store.DeleteMatch(ctx, id); err != nil {
		if errors.Is(err, store.ErrInUse) {
			return validationError("Match %d still has orders", id)
		}
		return lookupError(err, matchNotFound(id))
	}
	slog.InfoContext(ctx, "match deleted", "match_id", id)
	if s.Publisher != nil {
		s.Publisher.Forget(ctx, id)
	}
	return nil
}

// Availability returns remaining tickets per match id straight from the store.
func (s *MatchService) Availability(ctx context.Context) (map[uint]int, error) {
	matches, err := s.Store.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(matches))
	for _, m := range matches {
		out[m.ID] = m.AvailableTickets
	}
	return out, nil
}

func (s *MatchService) publish(ctx context.Context, m *models.Match) {
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, m)
	}
}
