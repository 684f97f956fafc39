package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"match-ticket-system/models"
	"match-ticket-system/store"

	"github.com/shopspring/decimal"
)

type AccountService struct {
	Store store.Store

	// Accounts created without a balance get a random one in [MinBalance, MaxBalance+1).
	MinBalance int
	MaxBalance int
}

func NewAccountService(s store.Store, minBalance, maxBalance int) *AccountService {
	return &AccountService{Store: s, MinBalance: minBalance, MaxBalance: maxBalance}
}

// CreateAccount opens the account of userID. A nil balance draws a random one.
func (s *AccountService) CreateAccount(ctx context.Context, userID string, balance *decimal.Decimal) (*models.Account, error) {
	if userID == "" {
		return nil, validationError("User id is required")
	}
	if _, err := s.Store.GetAccount(ctx, userID); err == nil {
		return nil, newError(KindAlreadyExists, "An account for %s already exists", userID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	money := s.randomBalance()
	if balance != nil {
		money = models.RoundMoney(*balance)
	}
	if money.IsNegative() {
		return nil, validationError("Available money cannot be negative")
	}

	account := &models.Account{UserID: userID, Balance: money}
	if err := s.Store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, newError(KindAlreadyExists, "An account for %s already exists", userID)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "account created", "user_id", userID, "balance", models.FormatMoney(money))
	return account, nil
}

func (s *AccountService) randomBalance() decimal.Decimal {
	lo, hi := s.MinBalance, s.MaxBalance
	if hi < lo {
		hi = lo
	}
	whole := lo + rand.Intn(hi-lo+1)
	return models.RoundMoney(decimal.NewFromFloat(rand.Float64()).Add(decimal.NewFromInt(int64(whole))))
}

func (s *AccountService) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	a, err := s.Store.GetAccount(ctx, userID)
	if err != nil {
		return nil, lookupError(err, noAccount(userID))
	}
	return a, nil
}

// SetBalance overwrites the balance. It is an administrative correction, not a purchase.
func (s *AccountService) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) (*models.Account, error) {
	amount = models.RoundMoney(amount)
	if amount.IsNegative() {
		return nil, validationError("Available money cannot be negative")
	}
	a, err := s.Store.SetBalance(ctx, userID, amount)
	if err != nil {
		return nil, lookupError(err, noAccount(userID))
	}
	slog.InfoContext(ctx, "account balance set", "user_id", userID, "balance", models.FormatMoney(amount))
	return a, nil
}
