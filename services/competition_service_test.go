package services

import (
	"context"
	"testing"

	"match-ticket-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCompetition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store)

	c, err := svc.Create(ctx, CompetitionInput{
		Name:     "Copa Ibérica",
		Category: models.CategoryJunior,
		Sport:    models.SportFutsal,
		Teams:    []string{"Porto", "Lyon", "Porto", "braga"},
	})
	require.NoError(t, err)
	assert.Equal(t, "copa-iberica", c.Slug)
	require.Len(t, c.Teams, 3)
	assert.True(t, c.HasTeam(f.home.ID))
	assert.True(t, c.HasTeam(f.other.ID))

	got, err := svc.GetByName(ctx, "copa-iberica")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	got, err = svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copa Ibérica", got.Name)
}

func TestCreateCompetitionValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store)

	tests := []struct {
		name string
		in   CompetitionInput
		want Kind
	}{
		{"existing name", CompetitionInput{Name: "Liga", Category: models.CategorySenior, Sport: models.SportFootball}, KindAlreadyExists},
		{"existing slug", CompetitionInput{Name: "LIGA", Category: models.CategorySenior, Sport: models.SportFootball}, KindAlreadyExists},
		{"missing team", CompetitionInput{Name: "Cup", Category: models.CategorySenior, Sport: models.SportFootball, Teams: []string{"Porto", "Nobody"}}, KindTeamNotFound},
		{"bad category", CompetitionInput{Name: "Cup", Category: "Veteran", Sport: models.SportFootball}, KindValidation},
		{"bad sport", CompetitionInput{Name: "Cup", Category: models.CategorySenior, Sport: "Chess"}, KindValidation},
		{"empty name", CompetitionInput{Name: "  ", Category: models.CategorySenior, Sport: models.SportFootball}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.Equal(t, tt.want, KindOf(err), "%v", err)
		})
	}

	_, err := svc.GetByName(ctx, "Cup")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestUpdateCompetition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCompetitionService(f.store)
	_, err := svc.Create(ctx, CompetitionInput{Name: "Taça", Category: models.CategorySenior, Sport: models.SportFootball})
	require.NoError(t, err)

	name := "Liga Betclic"
	sport := models.SportFutsal
	c, err := svc.Update(ctx, "Liga", models.CompetitionUpdate{Name: &name, Sport: &sport})
	require.NoError(t, err)
	assert.Equal(t, "liga-betclic", c.Slug)
	assert.Equal(t, models.SportFutsal, c.Sport)
	assert.Len(t, c.Teams, 2)

	taken := "Taça"
	_, err = svc.Update(ctx, "Liga Betclic", models.CompetitionUpdate{Name: &taken})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	bad := models.Category("Amateur")
	_, err = svc.Update(ctx, "Liga Betclic", models.CompetitionUpdate{Category: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "Liga", models.CompetitionUpdate{})
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestDeleteCompetition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.match(t, "10.00", 5, 5)
	svc := NewCompetitionService(f.store)

	_, err := svc.Delete(ctx, "Liga")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.store.DeleteMatch(ctx, m.ID))
	_, err = svc.Delete(ctx, "Liga")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "deleted matches included")

	cup, err := svc.Create(ctx, CompetitionInput{
		Name:     "Taça",
		Category: models.CategorySenior,
		Sport:    models.SportFootball,
		Teams:    []string{"Porto", "Braga"},
	})
	require.NoError(t, err)
	c, err := svc.Delete(ctx, "Taça")
	require.NoError(t, err)
	assert.Equal(t, cup.ID, c.ID)

	_, err = svc.Delete(ctx, "Taça")
	assert.ErrorIs(t, err, ErrCompetitionNotFound)

	_, err = f.store.GetTeam(ctx, f.home.ID)
	assert.NoError(t, err, "teams survive their competition")
}
