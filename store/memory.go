package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"match-ticket-system/models"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in maps. Transactions are serialized by a single
// lock, stage their writes on copies and check constraints before applying them.
// It backs tests and ENVIRONMENT=memory.
type MemoryStore struct {
	mu sync.RWMutex

	accounts     map[string]models.Account
	matches      map[uint]models.Match
	retired      map[uint]models.Match // deleted matches, kept like soft-deleted rows
	teams        map[uint]models.Team
	competitions map[uint]models.Competition
	compTeams    map[uint][]uint
	orders       map[uint]models.Order

	nextMatch, nextTeam, nextCompetition, nextOrder uint

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]models.Account),
		matches:      make(map[uint]models.Match),
		retired:      make(map[uint]models.Match),
		teams:        make(map[uint]models.Team),
		competitions: make(map[uint]models.Competition),
		compTeams:    make(map[uint][]uint),
		orders:       make(map[uint]models.Order),
		now:          time.Now,
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }

// --- hydration, caller holds the lock ---

func (s *MemoryStore) hydrateMatch(m models.Match) models.Match {
	if t, ok := s.teams[m.LocalID]; ok {
		m.LocalTeam = &t
	}
	if t, ok := s.teams[m.VisitorID]; ok {
		m.VisitorTeam = &t
	}
	if c, ok := s.competitions[m.CompetitionID]; ok {
		m.Competition = &c
	}
	return m
}

func (s *MemoryStore) hydrateCompetition(c models.Competition) *models.Competition {
	c.Teams = nil
	for _, id := range s.compTeams[c.ID] {
		if t, ok := s.teams[id]; ok {
			t := t
			c.Teams = append(c.Teams, &t)
		}
	}
	sort.Slice(c.Teams, func(i, j int) bool { return c.Teams[i].Name < c.Teams[j].Name })

	c.Matches = nil
	for _, m := range s.matches {
		if m.CompetitionID == c.ID {
			c.Matches = append(c.Matches, m)
		}
	}
	sortMatches(c.Matches)
	return &c
}

func sortMatches(ms []models.Match) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.Before(ms[j].Date)
		}
		return ms[i].ID < ms[j].ID
	})
}

// --- reads ---

func (s *MemoryStore) GetAccount(_ context.Context, userID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id uint) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	m = s.hydrateMatch(m)
	return &m, nil
}

func (s *MemoryStore) ListMatches(context.Context) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, s.hydrateMatch(m))
	}
	sortMatches(out)
	return out, nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id uint) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) GetTeamByName(_ context.Context, name string) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teams {
		if t.Name == name || t.Slug == name {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListTeams(context.Context) ([]models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetCompetition(_ context.Context, id uint) (*models.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competitions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.hydrateCompetition(c), nil
}

func (s *MemoryStore) GetCompetitionByName(_ context.Context, name string) (*models.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.competitions {
		if c.Name == name || c.Slug == name {
			return s.hydrateCompetition(c), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (s *MemoryStore) ListOrders(context.Context) ([]models.Order, error) {
	return s.filterOrders(func(models.Order) bool { return true }), nil
}

func (s *MemoryStore) ListOrdersByAccount(_ context.Context, userID string) ([]models.Order, error) {
	return s.filterOrders(func(o models.Order) bool { return o.AccountID == userID }), nil
}

func (s *MemoryStore) filterOrders(keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) CountMatchesForTeam(_ context.Context, teamID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMatchesForTeam(teamID), nil
}

func (s *MemoryStore) CountMatchesForCompetition(_ context.Context, competitionID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMatches(func(m models.Match) bool { return m.CompetitionID == competitionID }), nil
}

func (s *MemoryStore) countMatchesForTeam(teamID uint) int64 {
	return s.countMatches(func(m models.Match) bool { return m.LocalID == teamID || m.VisitorID == teamID })
}

// countMatches counts live and deleted matches.
func (s *MemoryStore) countMatches(pred func(models.Match) bool) int64 {
	var n int64
	for _, set := range []map[uint]models.Match{s.matches, s.retired} {
		for _, m := range set {
			if pred(m) {
				n++
			}
		}
	}
	return n
}

// --- transactions ---

// memTx must not call back into the MemoryStore read methods: the store lock
// is already held for writing.
type memTx struct {
	s        *MemoryStore
	accounts map[string]models.Account
	matches  map[uint]models.Match
	orders   []models.Order
}

func (s *MemoryStore) Transaction(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		accounts: make(map[string]models.Account),
		matches:  make(map[uint]models.Match),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (t *memTx) GetAccount(_ context.Context, userID string) (*models.Account, error) {
	if a, ok := t.accounts[userID]; ok {
		return &a, nil
	}
	a, ok := t.s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (t *memTx) GetMatch(_ context.Context, id uint) (*models.Match, error) {
	if m, ok := t.matches[id]; ok {
		return &m, nil
	}
	m, ok := t.s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (t *memTx) UpdateMatch(_ context.Context, m *models.Match) error {
	if _, ok := t.s.matches[m.ID]; !ok {
		return ErrNotFound
	}
	staged := *m
	staged.LocalTeam, staged.VisitorTeam, staged.Competition = nil, nil, nil
	t.matches[m.ID] = staged
	return nil
}

func (t *memTx) UpdateAccount(_ context.Context, a *models.Account) error {
	if _, ok := t.s.accounts[a.UserID]; !ok {
		return ErrNotFound
	}
	t.accounts[a.UserID] = *a
	return nil
}

func (t *memTx) CreateOrder(_ context.Context, o *models.Order) error {
	if o.TicketsBought < 1 {
		return fmt.Errorf("store: order must hold at least one ticket, got %d", o.TicketsBought)
	}
	t.s.nextOrder++
	o.ID = t.s.nextOrder
	o.CreatedAt = t.s.now()
	t.orders = append(t.orders, *o)
	return nil
}

func (t *memTx) commit() error {
	for id, m := range t.matches {
		if m.AvailableTickets < 0 || m.AvailableTickets > m.NumberOfSeats {
			return fmt.Errorf("%w: match %d has %d of %d tickets", ErrTicketsConstraint, id, m.AvailableTickets, m.NumberOfSeats)
		}
	}
	for id, a := range t.accounts {
		if a.Balance.IsNegative() {
			return fmt.Errorf("%w: account %s balance %s", ErrBalanceConstraint, id, a.Balance)
		}
	}

	now := t.s.now()
	for id, m := range t.matches {
		m.UpdatedAt = now
		t.s.matches[id] = m
	}
	for id, a := range t.accounts {
		a.UpdatedAt = now
		t.s.accounts[id] = a
	}
	for _, o := range t.orders {
		t.s.orders[o.ID] = o
	}
	return nil
}

// --- accounts ---

func (s *MemoryStore) CreateAccount(_ context.Context, a *models.Account) error {
	if a.Balance.IsNegative() {
		return fmt.Errorf("%w: %w", ErrBalanceConstraint, models.ErrNegativeBalance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.UserID]; ok {
		return ErrAlreadyExists
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Orders = nil
	s.accounts[a.UserID] = stored
	return nil
}

func (s *MemoryStore) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) (*models.Account, error) {
	var out *models.Account
	err := s.Transaction(ctx, func(tx Tx) error {
		a, err := tx.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		a.Balance = balance
		out = a
		return tx.UpdateAccount(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- matches ---

func (s *MemoryStore) CreateMatch(_ context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.AvailableTickets < 0 || m.AvailableTickets > m.NumberOfSeats {
		return ErrTicketsConstraint
	}
	s.nextMatch++
	m.ID = s.nextMatch
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	stored := *m
	stored.LocalTeam, stored.VisitorTeam, stored.Competition = nil, nil, nil
	s.matches[m.ID] = stored
	return nil
}

func (s *MemoryStore) UpdateMatchFunc(ctx context.Context, id uint, fn func(m *models.Match) error) (*models.Match, error) {
	err := s.Transaction(ctx, func(tx Tx) error {
		m, err := tx.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		return tx.UpdateMatch(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, id)
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.matches, id)
	s.retired[id] = m
	return nil
}

// --- teams ---

func (s *MemoryStore) teamClash(t *models.Team) bool {
	for id, other := range s.teams {
		if id != t.ID && (other.Name == t.Name || other.Slug == t.Slug) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateTeam(_ context.Context, t *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.teamClash(t) {
		return ErrAlreadyExists
	}
	if t.ID == 0 {
		s.nextTeam++
		t.ID = s.nextTeam
	} else if _, taken := s.teams[t.ID]; taken {
		return ErrAlreadyExists
	} else if t.ID > s.nextTeam {
		s.nextTeam = t.ID
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	stored := *t
	stored.Competitions = nil
	s.teams[t.ID] = stored
	return nil
}

func (s *MemoryStore) SaveTeam(_ context.Context, t *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; !ok {
		return ErrNotFound
	}
	if s.teamClash(t) {
		return ErrAlreadyExists
	}
	t.UpdatedAt = s.now()
	stored := *t
	stored.Competitions = nil
	s.teams[t.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteTeam(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return ErrNotFound
	}
	if s.countMatchesForTeam(id) > 0 {
		return ErrInUse
	}
	delete(s.teams, id)
	for cid, ids := range s.compTeams {
		kept := ids[:0]
		for _, tid := range ids {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		s.compTeams[cid] = kept
	}
	return nil
}

// --- competitions ---

func (s *MemoryStore) competitionClash(c *models.Competition) bool {
	for id, other := range s.competitions {
		if id != c.ID && (other.Name == c.Name || other.Slug == c.Slug) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateCompetition(_ context.Context, c *models.Competition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.competitionClash(c) {
		return ErrAlreadyExists
	}
	ids := make([]uint, 0, len(c.Teams))
	for _, t := range c.Teams {
		if _, ok := s.teams[t.ID]; !ok {
			return fmt.Errorf("%w: team %d", ErrInUse, t.ID)
		}
		ids = append(ids, t.ID)
	}
	s.nextCompetition++
	c.ID = s.nextCompetition
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Teams, stored.Matches = nil, nil
	s.competitions[c.ID] = stored
	s.compTeams[c.ID] = ids
	return nil
}

func (s *MemoryStore) SaveCompetition(_ context.Context, c *models.Competition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.competitions[c.ID]; !ok {
		return ErrNotFound
	}
	if s.competitionClash(c) {
		return ErrAlreadyExists
	}
	c.UpdatedAt = s.now()
	stored := *c
	stored.Teams, stored.Matches = nil, nil
	s.competitions[c.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteCompetition(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.competitions[id]; !ok {
		return ErrNotFound
	}
	if s.countMatches(func(m models.Match) bool { return m.CompetitionID == id }) > 0 {
		return ErrInUse
	}
	delete(s.competitions, id)
	delete(s.compTeams, id)
	return nil
}

// --- orders ---

func (s *MemoryStore) DeleteOrder(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
