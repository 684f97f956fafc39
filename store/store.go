// Package store is the ledger store: durable, constraint-checked persistence for
// accounts, matches, orders, teams and competitions.
package store

import (
	"context"
	"errors"

	"match-ticket-system/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrInUse means the row is still referenced and cannot be deleted.
	ErrInUse = errors.New("store: still referenced")

	// ErrTicketsConstraint means a write would leave a match with negative availability
	// (or more availability than seats). The whole transaction is rolled back.
	ErrTicketsConstraint = errors.New("store: available tickets constraint violated")

	// ErrBalanceConstraint means a write would leave an account with a negative balance.
	ErrBalanceConstraint = errors.New("store: balance constraint violated")
)

// Reader is the non-locking read side.
type Reader interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	ListMatches(ctx context.Context) ([]models.Match, error)
	GetTeam(ctx context.Context, id uint) (*models.Team, error)
	// GetTeamByName matches either the team name or its slug.
	GetTeamByName(ctx context.Context, name string) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetCompetition(ctx context.Context, id uint) (*models.Competition, error)
	GetCompetitionByName(ctx context.Context, name string) (*models.Competition, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByAccount(ctx context.Context, userID string) ([]models.Order, error)
	// CountMatchesForTeam and CountMatchesForCompetition include deleted matches:
	// their orders keep them, and with them the team and competition, referenced.
	CountMatchesForTeam(ctx context.Context, teamID uint) (int64, error)
	CountMatchesForCompetition(ctx context.Context, competitionID uint) (int64, error)
}

// Tx is the handle a purchase mutates through. Reads inside a Tx lock the row
// until the transaction ends.
type Tx interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	GetMatch(ctx context.Context, id uint) (*models.Match, error)
	UpdateMatch(ctx context.Context, m *models.Match) error
	UpdateAccount(ctx context.Context, a *models.Account) error
	CreateOrder(ctx context.Context, o *models.Order) error
}

// Store is the full ledger store.
type Store interface {
	Reader

	// Transaction runs fn atomically: every write made through tx is committed
	// together, or none is when fn returns an error or a constraint fails.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	CreateAccount(ctx context.Context, a *models.Account) error
	SetBalance(ctx context.Context, userID string, balance decimal.Decimal) (*models.Account, error)

	CreateMatch(ctx context.Context, m *models.Match) error
	// UpdateMatchFunc loads the match under lock, lets fn change it and saves it.
	UpdateMatchFunc(ctx context.Context, id uint, fn func(m *models.Match) error) (*models.Match, error)
	DeleteMatch(ctx context.Context, id uint) error

	CreateTeam(ctx context.Context, t *models.Team) error
	SaveTeam(ctx context.Context, t *models.Team) error
	DeleteTeam(ctx context.Context, id uint) error

	// CreateCompetition also registers c.Teams.
	CreateCompetition(ctx context.Context, c *models.Competition) error
	SaveCompetition(ctx context.Context, c *models.Competition) error
	DeleteCompetition(ctx context.Context, id uint) error

	DeleteOrder(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
	Close() error
}

// IsConstraint reports whether err is a storage-level constraint rejection.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrTicketsConstraint) || errors.Is(err, ErrBalanceConstraint)
}
