package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CrestUploader stores a crest image and returns its public URL.
type CrestUploader interface {
	Upload(ctx context.Context, key string, fh *multipart.FileHeader) (string, error)
}

var allowedCrestTypes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
	".webp": true,
}

// normalizeCountry upper-cases word starts and leaves existing capitals alone,
// so "spain" becomes "Spain" and "NL" stays "NL". Casers are stateful, hence one per call.
func normalizeCountry(country string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(strings.Fields(country), " "))
}

type TeamService struct {
	Store    store.Store
	Uploader CrestUploader
}

func NewTeamService(s store.Store, uploader CrestUploader) *TeamService {
	return &TeamService{Store: s, Uploader: uploader}
}

func (s *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	return s.Store.ListTeams(ctx)
}

func (s *TeamService) GetTeam(ctx context.Context, name string) (*models.Team, error) {
	t, err := s.Store.GetTeamByName(ctx, name)
	if err != nil {
		return nil, lookupError(err, teamNotFound(name))
	}
	return t, nil
}

// UpsertByName updates the team called name, or creates it when it does not
// exist and the update carries a country.
func (s *TeamService) UpsertByName(ctx context.Context, name string, upd models.TeamUpdate) (*models.Team, error) {
	team, err := s.Store.GetTeamByName(ctx, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := s.checkRename(ctx, team, upd.Name); err != nil {
		return nil, err
	}

	if team == nil {
		if upd.Name == nil {
			upd.Name = &name
		}
		return s.create(ctx, 0, upd, fmt.Sprintf("Team %s not found. Lack of information to create a new one", name))
	}
	return s.modify(ctx, team, upd)
}

// UpsertByID updates the team with the given id, or creates it under that id.
func (s *TeamService) UpsertByID(ctx context.Context, id uint, upd models.TeamUpdate) (*models.Team, error) {
	team, err := s.Store.GetTeam(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err := s.checkRename(ctx, team, upd.Name); err != nil {
		return nil, err
	}

	if team == nil {
		return s.create(ctx, id, upd, fmt.Sprintf("Team with id %d not found. Lack of information to create a new one", id))
	}
	return s.modify(ctx, team, upd)
}

// checkRename fails when newName (or its slug) already belongs to a team other than self.
func (s *TeamService) checkRename(ctx context.Context, self *models.Team, newName *string) error {
	if newName == nil {
		return nil
	}
	for _, candidate := range []string{*newName, slug.Make(*newName)} {
		other, err := s.Store.GetTeamByName(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if self == nil || other.ID != self.ID {
			return teamExists(*newName)
		}
	}
	return nil
}

func (s *TeamService) create(ctx context.Context, id uint, upd models.TeamUpdate, missing string) (*models.Team, error) {
	if upd.Name == nil || strings.TrimSpace(*upd.Name) == "" || upd.Country == nil || strings.TrimSpace(*upd.Country) == "" {
		return nil, newError(KindTeamNotFound, "%s", missing)
	}
	team := &models.Team{
		ID:          id,
		Name:        strings.TrimSpace(*upd.Name),
		Country:     normalizeCountry(*upd.Country),
		Description: upd.Description,
	}
	team.Slug = slug.Make(team.Name)
	if err := s.Store.CreateTeam(ctx, team); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, teamExists(team.Name)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "team created", "team_id", team.ID, "name", team.Name)
	return team, nil
}

func (s *TeamService) modify(ctx context.Context, team *models.Team, upd models.TeamUpdate) (*models.Team, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		team.Name = strings.TrimSpace(*upd.Name)
		team.Slug = slug.Make(team.Name)
	}
	if upd.Country != nil {
		team.Country = normalizeCountry(*upd.Country)
	}
	if upd.Description != nil {
		team.Description = upd.Description
	}
	if err := s.Store.SaveTeam(ctx, team); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, teamExists(team.Name)
		}
		return nil, err
	}
	return team, nil
}

// DeleteTeam refuses while any match, deleted ones included, references the team.
func (s *TeamService) DeleteTeam(ctx context.Context, name string) (*models.Team, error) {
	team, err := s.GetTeam(ctx, name)
	if err != nil {
		return nil, err
	}
	n, err := s.Store.CountMatchesForTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, validationError("Team %s is referenced by %d matches (deleted matches included)", team.Name, n)
	}
	if err := s.Store.DeleteTeam(ctx, team.ID); err != nil {
		if errors.Is(err, store.ErrInUse) {
			return nil, validationError("Team %s is still referenced by matches", team.Name)
		}
		return nil, lookupError(err, teamNotFound(name))
	}
	slog.InfoContext(ctx, "team deleted", "team_id", team.ID, "name", team.Name)
	return team, nil
}

// UploadCrest stores the image under crests/<slug>/ and records its URL.
func (s *TeamService) UploadCrest(ctx context.Context, name string, fh *multipart.FileHeader) (*models.Team, error) {
	if s.Uploader == nil {
		return nil, validationError("Crest storage is not configured")
	}
	team, err := s.GetTeam(ctx, name)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedCrestTypes[ext] {
		return nil, validationError("Unsupported crest file type %q", ext)
	}

	key := fmt.Sprintf("crests/%s/%s%s", team.Slug, uuid.NewString(), ext)
	url, err := s.Uploader.Upload(ctx, key, fh)
	if err != nil {
		return nil, fmt.Errorf("upload crest: %w", err)
	}
	team.CrestURL = url
	if err := s.Store.SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "team crest uploaded", "team_id", team.ID, "url", url)
	return team, nil
}

func teamNotFound(name string) *Error {
	return newError(KindTeamNotFound, "Team %s not found", name)
}

func teamExists(name string) *Error {
	return newError(KindAlreadyExists, "A team named %s already exists in the system", name)
}
