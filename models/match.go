package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketsConstraint is the name of the storage-level ticket availability check.
const TicketsConstraint = "chk_matches_tickets_gte_0"

// Match is one scheduled fixture with a limited ticket inventory.
// available_tickets stays within [0, number_of_seats]; both bounds are CHECK constraints.
type Match struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Date             time.Time       `gorm:"not null;index" json:"date"`
	Price            decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_matches_price_non_negative,price >= 0" json:"price"`
	NumberOfSeats    int             `gorm:"not null;check:chk_matches_capacity,number_of_seats >= available_tickets" json:"number_of_seats"`
	AvailableTickets int             `gorm:"not null;check:chk_matches_tickets_gte_0,available_tickets >= 0" json:"total_available_tickets"`

	CompetitionID uint `gorm:"not null;index" json:"competition_id"`
	LocalID       uint `gorm:"not null;index" json:"local_id"`
	VisitorID     uint `gorm:"not null;index" json:"visitor_id"`

	Competition *Competition `gorm:"foreignKey:CompetitionID" json:"competition,omitempty"`
	LocalTeam   *Team        `gorm:"foreignKey:LocalID" json:"local_team,omitempty"`
	VisitorTeam *Team        `gorm:"foreignKey:VisitorID" json:"visitor_team,omitempty"`

	Timestamps
}

// MatchUpdate carries the fields an administrator may change; nil means untouched.
type MatchUpdate struct {
	Date             *time.Time
	Price            *decimal.Decimal
	AvailableTickets *int
}
