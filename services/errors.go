package services

import (
	"errors"
	"fmt"

	"match-ticket-system/models"

	"github.com/shopspring/decimal"
)

// Kind identifies a failure category callers can branch on.
type Kind string

const (
	KindNoAccount             Kind = "NO_ACCOUNT"
	KindMatchNotFound         Kind = "MATCH_NOT_FOUND"
	KindBelowMinimum          Kind = "BELOW_MINIMUM"
	KindInsufficientInventory Kind = "INSUFFICIENT_INVENTORY"
	KindInsufficientFunds     Kind = "INSUFFICIENT_FUNDS"
	KindRaceLostInventory     Kind = "RACE_LOST_INVENTORY"
	KindRaceLostFunds         Kind = "RACE_LOST_FUNDS"
	KindDuplicateTeamInMatch  Kind = "DUPLICATE_TEAM_IN_MATCH"
	KindTeamNotInCompetition  Kind = "TEAM_NOT_IN_COMPETITION"

	KindValidation          Kind = "VALIDATION"
	KindTeamNotFound        Kind = "TEAM_NOT_FOUND"
	KindCompetitionNotFound Kind = "COMPETITION_NOT_FOUND"
	KindOrderNotFound       Kind = "ORDER_NOT_FOUND"
	KindAlreadyExists       Kind = "ALREADY_EXISTS"
)

// Error is a categorized domain failure. MatchID is set when a specific match
// caused it; Balance and Cost are set on funds failures.
type Error struct {
	Kind    Kind
	Message string
	MatchID uint
	Balance *decimal.Decimal
	Cost    *decimal.Decimal
}

func (e *Error) Error() string { return e.Message }

// Is matches on Kind alone, so errors.Is(err, ErrInsufficientFunds) works
// for any funds failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the failure came from losing a concurrent race.
func (e *Error) Retryable() bool {
	return e.Kind == KindRaceLostInventory || e.Kind == KindRaceLostFunds
}

var (
	ErrNoAccount             = &Error{Kind: KindNoAccount}
	ErrMatchNotFound         = &Error{Kind: KindMatchNotFound}
	ErrBelowMinimum          = &Error{Kind: KindBelowMinimum}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds}
	ErrRaceLostInventory     = &Error{Kind: KindRaceLostInventory}
	ErrRaceLostFunds         = &Error{Kind: KindRaceLostFunds}
	ErrDuplicateTeamInMatch  = &Error{Kind: KindDuplicateTeamInMatch}
	ErrTeamNotInCompetition  = &Error{Kind: KindTeamNotInCompetition}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrTeamNotFound          = &Error{Kind: KindTeamNotFound}
	ErrCompetitionNotFound   = &Error{Kind: KindCompetitionNotFound}
	ErrOrderNotFound         = &Error{Kind: KindOrderNotFound}
	ErrAlreadyExists         = &Error{Kind: KindAlreadyExists}
)

// KindOf returns the Kind of err, or "" for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func noAccount(userID string) *Error {
	return newError(KindNoAccount, "No account found for user %s", userID)
}

func matchNotFound(id uint) *Error {
	e := newError(KindMatchNotFound, "Match with id %d not found", id)
	e.MatchID = id
	return e
}

func belowMinimum(id uint, qty int) *Error {
	e := newError(KindBelowMinimum, "Must buy at least one ticket, requested %d", qty)
	e.MatchID = id
	return e
}

func insufficientInventory(m *models.Match, qty int) *Error {
	e := newError(KindInsufficientInventory,
		"Not enough tickets for match %d (requested: %d, available: %d)", m.ID, qty, m.AvailableTickets)
	e.MatchID = m.ID
	return e
}

func insufficientFunds(balance, cost decimal.Decimal) *Error {
	e := newError(KindInsufficientFunds, "Insufficient funds (You have: %s, Total cost: %s)",
		models.FormatMoney(balance), models.FormatMoney(cost))
	e.Balance, e.Cost = &balance, &cost
	return e
}

func raceLostInventory(id uint) *Error {
	if id == 0 {
		return newError(KindRaceLostInventory, "Tickets were sold while the purchase was processed")
	}
	e := newError(KindRaceLostInventory, "Tickets for match %d were sold while the purchase was processed", id)
	e.MatchID = id
	return e
}

func raceLostFunds(userID string) *Error {
	return newError(KindRaceLostFunds, "Balance of user %s changed while the purchase was processed", userID)
}
