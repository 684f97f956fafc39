package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/gosimple/slug"
)

// CompetitionInput registers a competition with its teams, given by name.
type CompetitionInput struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Sport    models.Sport    `json:"sport"`
	Teams    []string        `json:"teams"`
}

type CompetitionService struct {
	Store store.Store
}

func NewCompetitionService(s store.Store) *CompetitionService {
	return &CompetitionService{Store: s}
}

func (s *CompetitionService) GetByName(ctx context.Context, name string) (*models.Competition, error) {
	c, err := s.Store.GetCompetitionByName(ctx, name)
	if err != nil {
		return nil, lookupError(err, newError(KindCompetitionNotFound, "Competition %s not found", name))
	}
	return c, nil
}

func (s *CompetitionService) GetByID(ctx context.Context, id uint) (*models.Competition, error) {
	c, err := s.Store.GetCompetition(ctx, id)
	if err != nil {
		return nil, lookupError(err, newError(KindCompetitionNotFound, "Competition with id %d not found", id))
	}
	return c, nil
}

func (s *CompetitionService) Create(ctx context.Context, in CompetitionInput) (*models.Competition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("Competition name is required")
	}
	if !in.Category.Valid() {
		return nil, validationError("Unknown category %q", in.Category)
	}
	if !in.Sport.Valid() {
		return nil, validationError("Unknown sport %q", in.Sport)
	}
	if err := s.checkNameFree(ctx, 0, name); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(in.Teams))
	names := make([]string, 0, len(in.Teams))
	for _, n := range in.Teams {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)

	teams := make([]*models.Team, 0, len(names))
	for _, n := range names {
		t, err := s.Store.GetTeamByName(ctx, n)
		if err != nil {
			return nil, lookupError(err, teamNotFound(n))
		}
		teams = append(teams, t)
	}

	c := &models.Competition{
		Name:     name,
		Slug:     slug.Make(name),
		Category: in.Category,
		Sport:    in.Sport,
		Teams:    teams,
	}
	if err := s.Store.CreateCompetition(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, competitionExists(name)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "competition created", "competition_id", c.ID, "name", c.Name, "teams", len(teams))
	return s.GetByID(ctx, c.ID)
}

// Update changes name, category or sport. Teams are fixed at creation.
func (s *CompetitionService) Update(ctx context.Context, name string, upd models.CompetitionUpdate) (*models.Competition, error) {
	c, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		newName := strings.TrimSpace(*upd.Name)
		if newName == "" {
			return nil, validationError("Competition name is required")
		}
		if err := s.checkNameFree(ctx, c.ID, newName); err != nil {
			return nil, err
		}
		c.Name = newName
		c.Slug = slug.Make(newName)
	}
	if upd.Category != nil {
		if !upd.Category.Valid() {
			return nil, validationError("Unknown category %q", *upd.Category)
		}
		c.Category = *upd.Category
	}
	if upd.Sport != nil {
		if !upd.Sport.Valid() {
			return nil, validationError("Unknown sport %q", *upd.Sport)
		}
		c.Sport = *upd.Sport
	}

	if err := s.Store.SaveCompetition(ctx, c); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, competitionExists(c.Name)
		}
		return nil, err
	}
	return s.GetByID(ctx, c.ID)
}

// Delete refuses while any match, deleted ones included, belongs to the competition.
func (s *CompetitionService) Delete(ctx context.Context, name string) (*models.Competition, error) {
	c, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	n, err := s.Store.CountMatchesForCompetition(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, validationError("Competition %s is referenced by %d matches (deleted matches included)", c.Name, n)
	}
	if err := s.Store.DeleteCompetition(ctx, c.ID); err != nil {
		if errors.Is(err, store.ErrInUse) {
			return nil, validationError("Competition %s is still referenced by matches", c.Name)
		}
		return nil, lookupError(err, newError(KindCompetitionNotFound, "Competition %s not found", name))
	}
	slog.InfoContext(ctx, "competition deleted", "competition_id", c.ID, "name", c.Name)
	return c, nil
}

// checkNameFree fails when name or its slug belongs to a competition other than selfID.
func (s *CompetitionService) checkNameFree(ctx context.Context, selfID uint, name string) error {
	for _, candidate := range []string{name, slug.Make(name)} {
		other, err := s.Store.GetCompetitionByName(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if other.ID != selfID {
			return competitionExists(name)
		}
	}
	return nil
}

func competitionExists(name string) *Error {
	return newError(KindAlreadyExists, "A competition named %s already exists in the system", name)
}
