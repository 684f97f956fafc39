package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *store.MemoryStore
	home  *models.Team
	away  *models.Team
	other *models.Team
	comp  *models.Competition
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	f := &fixture{store: s}
	f.home = &models.Team{Name: "Porto", Slug: "porto", Country: "Portugal"}
	f.away = &models.Team{Name: "Braga", Slug: "braga", Country: "Portugal"}
	f.other = &models.Team{Name: "Lyon", Slug: "lyon", Country: "France"}
	for _, team := range []*models.Team{f.home, f.away, f.other} {
		require.NoError(t, s.CreateTeam(ctx, team))
	}

	f.comp = &models.Competition{
		Name:     "Liga",
		Slug:     "liga",
		Category: models.CategorySenior,
		Sport:    models.SportFootball,
		Teams:    []*models.Team{f.home, f.away},
	}
	require.NoError(t, s.CreateCompetition(ctx, f.comp))
	return f
}

func (f *fixture) match(t *testing.T, price string, seats, available int) *models.Match {
	t.Helper()
	m := &models.Match{
		Date:             time.Date(2026, 12, 5, 20, 0, 0, 0, time.UTC),
		Price:            decimal.RequireFromString(price),
		NumberOfSeats:    seats,
		AvailableTickets: available,
		CompetitionID:    f.comp.ID,
		LocalID:          f.home.ID,
		VisitorID:        f.away.ID,
	}
	require.NoError(t, f.store.CreateMatch(context.Background(), m))
	return m
}

func (f *fixture) account(t *testing.T, userID, balance string) *models.Account {
	t.Helper()
	a := &models.Account{UserID: userID, Balance: decimal.RequireFromString(balance)}
	require.NoError(t, f.store.CreateAccount(context.Background(), a))
	return a
}

func (f *fixture) available(t *testing.T, id uint) int {
	t.Helper()
	m, err := f.store.GetMatch(context.Background(), id)
	require.NoError(t, err)
	return m.AvailableTickets
}

func (f *fixture) balance(t *testing.T, userID string) string {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	return models.FormatMoney(a.Balance)
}

// recordingPublisher collects published availability.
type recordingPublisher struct {
	mu   sync.Mutex
	seen map[uint]int
}

func (p *recordingPublisher) Publish(_ context.Context, matches ...*models.Match) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen == nil {
		p.seen = make(map[uint]int)
	}
	for _, m := range matches {
		p.seen[m.ID] = m.AvailableTickets
	}
}

func (p *recordingPublisher) Forget(_ context.Context, matchID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, matchID)
}

// staleReads serves fixed snapshots from the non-locking read path while
// transactions see the real rows.
type staleReads struct {
	store.Store
	match   *models.Match
	account *models.Account
}

func (s *staleReads) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	if s.match != nil && s.match.ID == id {
		m := *s.match
		return &m, nil
	}
	return s.Store.GetMatch(ctx, id)
}

func (s *staleReads) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	if s.account != nil && s.account.UserID == userID {
		a := *s.account
		return &a, nil
	}
	return s.Store.GetAccount(ctx, userID)
}

// failingCommit runs the transaction body and then fails the way the store does
// when a constraint rejects the write. Nothing is applied.
type failingCommit struct {
	store.Store
	err error
}

func (s *failingCommit) Transaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.Transaction(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return s.err
	})
}
