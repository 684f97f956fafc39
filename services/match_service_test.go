package services

import (
	"context"
	"testing"
	"time"

	"match-ticket-system/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCreateMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pub := &recordingPublisher{}
	svc := NewMatchService(f.store, pub)

	m, err := svc.CreateMatch(ctx, MatchInput{
		Date:          time.Date(2026, 12, 20, 18, 0, 0, 0, time.UTC),
		Price:         decimal.RequireFromString("19.999"),
		NumberOfSeats: 300,
		CompetitionID: f.comp.ID,
		LocalID:       f.home.ID,
		VisitorID:     f.away.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "20.00", models.FormatMoney(m.Price))
	assert.Equal(t, 300, m.AvailableTickets)
	assert.Equal(t, 300, pub.seen[m.ID])

	got, err := svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Porto", got.LocalTeam.Name)
	assert.Equal(t, "Liga", got.Competition.Name)
}

func TestCreateMatchValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewMatchService(f.store, nil)
	valid := func() MatchInput {
		return MatchInput{
			Date:          time.Date(2026, 12, 20, 18, 0, 0, 0, time.UTC),
			Price:         decimal.RequireFromString("10"),
			NumberOfSeats: 10,
			CompetitionID: f.comp.ID,
			LocalID:       f.home.ID,
			VisitorID:     f.away.ID,
		}
	}

	tests := []struct {
		name   string
		modify func(in *MatchInput)
		want   Kind
	}{
		{"negative price", func(in *MatchInput) { in.Price = decimal.RequireFromString("-0.01") }, KindValidation},
		{"negative seats", func(in *MatchInput) { in.NumberOfSeats = -1 }, KindValidation},
		{"negative availability", func(in *MatchInput) { in.AvailableTickets = intPtr(-1) }, KindValidation},
		{"availability over seats", func(in *MatchInput) { in.AvailableTickets = intPtr(11) }, KindValidation},
		{"same team twice", func(in *MatchInput) { in.VisitorID = in.LocalID }, KindDuplicateTeamInMatch},
		{"unknown local", func(in *MatchInput) { in.LocalID = 999 }, KindTeamNotFound},
		{"unknown visitor", func(in *MatchInput) { in.VisitorID = 999 }, KindTeamNotFound},
		{"unknown competition", func(in *MatchInput) { in.CompetitionID = 999 }, KindCompetitionNotFound},
		{"local not registered", func(in *MatchInput) { in.LocalID = f.other.ID }, KindTeamNotInCompetition},
		{"visitor not registered", func(in *MatchInput) { in.VisitorID = f.other.ID }, KindTeamNotInCompetition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.modify(&in)
			_, err := svc.CreateMatch(ctx, in)
			assert.Equal(t, tt.want, KindOf(err), "%v", err)
		})
	}

	matches, err := svc.ListMatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUpdateMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.match(t, "10.00", 50, 40)
	svc := NewMatchService(f.store, nil)

	price := decimal.RequireFromString("12.345")
	date := time.Date(2027, 1, 2, 15, 0, 0, 0, time.UTC)
	got, err := svc.UpdateMatch(ctx, m.ID, models.MatchUpdate{Price: &price, Date: &date, AvailableTickets: intPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, "12.35", models.FormatMoney(got.Price))
	assert.True(t, got.Date.Equal(date))
	assert.Equal(t, 30, got.AvailableTickets)

	_, err = svc.UpdateMatch(ctx, m.ID, models.MatchUpdate{AvailableTickets: intPtr(31)})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "before: 30")

	_, err = svc.UpdateMatch(ctx, m.ID, models.MatchUpdate{AvailableTickets: intPtr(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	negative := decimal.RequireFromString("-1")
	_, err = svc.UpdateMatch(ctx, m.ID, models.MatchUpdate{Price: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateMatch(ctx, 404, models.MatchUpdate{})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	assert.Equal(t, 30, f.available(t, m.ID))
}

func TestDeleteMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.match(t, "10.00", 5, 5)
	pub := &recordingPublisher{seen: map[uint]int{m.ID: 5}}
	svc := NewMatchService(f.store, pub)

	require.NoError(t, svc.DeleteMatch(ctx, m.ID))
	assert.NotContains(t, pub.seen, m.ID)
	assert.ErrorIs(t, svc.DeleteMatch(ctx, m.ID), ErrMatchNotFound)

	_, err := f.store.GetTeam(ctx, f.home.ID)
	assert.NoError(t, err, "deleting a match keeps its teams")
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	a := f.match(t, "10.00", 5, 5)
	b := f.match(t, "10.00", 9, 2)
	svc := NewMatchService(f.store, nil)

	got, err := svc.Availability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{a.ID: 5, b.ID: 2}, got)
}
