package services

import (
	"match-ticket-system/models"

	"github.com/shopspring/decimal"
)

// Decision is a guard outcome. Kind is empty when Allowed.
type Decision struct {
	Allowed bool
	Kind    Kind
}

var allow = Decision{Allowed: true}

func deny(kind Kind) Decision { return Decision{Kind: kind} }

// CheckInventory allows 1 <= qty <= m.AvailableTickets. It never mutates m.
func CheckInventory(m *models.Match, qty int) Decision {
	if qty < 1 {
		return deny(KindBelowMinimum)
	}
	if qty > m.AvailableTickets {
		return deny(KindInsufficientInventory)
	}
	return allow
}

// CheckFunds allows a.Balance >= cost. cost must already be rounded with models.Cost.
func CheckFunds(a *models.Account, cost decimal.Decimal) Decision {
	if a.Balance.LessThan(cost) {
		return deny(KindInsufficientFunds)
	}
	return allow
}
