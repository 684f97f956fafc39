// models/account.go
package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNegativeBalance is returned when an account would be saved with balance < 0.
var ErrNegativeBalance = errors.New("available money must be non-negative")

// BalanceConstraint is the name of the storage-level balance check.
const BalanceConstraint = "chk_accounts_balance_non_negative"

// Account holds the money a user can spend on tickets.
// The primary key is the identity key handed over by the gateway (X-User-ID).
type Account struct {
	UserID  string          `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Balance decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_accounts_balance_non_negative,balance >= 0" json:"available_money"`

	Orders []Order `gorm:"foreignKey:AccountID" json:"-"`

	Timestamps
}

// Validate enforces balance >= 0.
func (a *Account) Validate() error {
	if a.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	return nil
}

// BeforeSave runs on Create, Save and Updates.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	return a.Validate()
}
