package models

import "time"

// Order records the tickets bought for one match inside one purchase.
// Orders are never updated.
type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MatchID       uint      `gorm:"not null;index" json:"match_id"`
	AccountID     string    `gorm:"type:varchar(64);not null;index" json:"account_id"`
	TicketsBought int       `gorm:"not null;check:chk_orders_tickets_bought_positive,tickets_bought >= 1" json:"tickets_bought"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	Match   *Match   `gorm:"foreignKey:MatchID" json:"-"`
	Account *Account `gorm:"foreignKey:AccountID;references:UserID" json:"-"`
}
