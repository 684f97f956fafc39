package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"match-ticket-system/models"
	"match-ticket-system/monitoring"
	"match-ticket-system/store"

	"github.com/shopspring/decimal"
)

// PurchaseItem is one line of a batch purchase.
type PurchaseItem struct {
	MatchID    uint `json:"match_id"`
	NumTickets int  `json:"num_tickets"`
}

// AvailabilityPublisher is told about matches whose availability changed or
// that were removed.
type AvailabilityPublisher interface {
	Publish(ctx context.Context, matches ...*models.Match)
	Forget(ctx context.Context, matchID uint)
}

// OrderService is the order engine. Every purchase runs three checks:
// a pre-check on plain reads, a re-check on rows locked inside the transaction,
// and the store constraints at write time. Failures of the last two are
// reported as race losses.
type OrderService struct {
	Store     store.Store
	Publisher AvailabilityPublisher
	Logger    *slog.Logger
}

func NewOrderService(s store.Store, publisher AvailabilityPublisher) *OrderService {
	return &OrderService{Store: s, Publisher: publisher, Logger: slog.Default()}
}

// PurchaseOne buys qty tickets of one match for the account.
func (s *OrderService) PurchaseOne(ctx context.Context, accountKey string, matchID uint, qty int) (*models.Order, error) {
	start := time.Now()
	order, err := s.purchaseOne(ctx, accountKey, matchID, qty)
	s.record(ctx, monitoring.ModeSingle, accountKey, start, err)
	return order, err
}

func (s *OrderService) purchaseOne(ctx context.Context, accountKey string, matchID uint, qty int) (*models.Order, error) {
	account, err := s.Store.GetAccount(ctx, accountKey)
	if err != nil {
		return nil, lookupError(err, noAccount(accountKey))
	}
	match, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, lookupError(err, matchNotFound(matchID))
	}
	if qty < 1 {
		return nil, belowMinimum(matchID, qty)
	}
	cost := models.Cost(match.Price, qty)
	if !CheckFunds(account, cost).Allowed {
		return nil, insufficientFunds(account.Balance, cost)
	}
	if !CheckInventory(match, qty).Allowed {
		return nil, insufficientInventory(match, qty)
	}

	var (
		order   *models.Order
		touched *models.Match
	)
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		acc, err := tx.GetAccount(ctx, accountKey)
		if err != nil {
			return lookupError(err, noAccount(accountKey))
		}
		m, err := tx.GetMatch(ctx, matchID)
		if err != nil {
			return lookupError(err, matchNotFound(matchID))
		}

		cost := models.Cost(m.Price, qty)
		if !CheckInventory(m, qty).Allowed {
			return raceLostInventory(matchID)
		}
		if !CheckFunds(acc, cost).Allowed {
			return raceLostFunds(accountKey)
		}

		m.AvailableTickets -= qty
		acc.Balance = acc.Balance.Sub(cost)
		if err := tx.UpdateMatch(ctx, m); err != nil {
			return err
		}
		if err := tx.UpdateAccount(ctx, acc); err != nil {
			return err
		}
		order = &models.Order{MatchID: matchID, AccountID: accountKey, TicketsBought: qty}
		touched = m
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, commitError(err, accountKey, matchID)
	}

	s.publish(ctx, touched)
	return order, nil
}

// PurchaseMany buys every item or nothing. Funds are checked once against the
// summed cost. Order ids come back in input order.
func (s *OrderService) PurchaseMany(ctx context.Context, accountKey string, items []PurchaseItem) ([]uint, error) {
	start := time.Now()
	ids, err := s.purchaseMany(ctx, accountKey, items)
	s.record(ctx, monitoring.ModeBatch, accountKey, start, err)
	return ids, err
}

func (s *OrderService) purchaseMany(ctx context.Context, accountKey string, items []PurchaseItem) ([]uint, error) {
	account, err := s.Store.GetAccount(ctx, accountKey)
	if err != nil {
		return nil, lookupError(err, noAccount(accountKey))
	}
	if len(items) == 0 {
		return nil, validationError("Purchase must contain at least one match")
	}

	// remaining tracks availability per match so repeated match ids add up.
	remaining := make(map[uint]*models.Match, len(items))
	total := decimal.Zero
	for _, item := range items {
		m, ok := remaining[item.MatchID]
		if !ok {
			m, err = s.Store.GetMatch(ctx, item.MatchID)
			if err != nil {
				return nil, lookupError(err, matchNotFound(item.MatchID))
			}
			remaining[item.MatchID] = m
		}
		switch CheckInventory(m, item.NumTickets).Kind {
		case KindBelowMinimum:
			return nil, belowMinimum(item.MatchID, item.NumTickets)
		case KindInsufficientInventory:
			return nil, insufficientInventory(m, item.NumTickets)
		}
		m.AvailableTickets -= item.NumTickets
		total = total.Add(models.Cost(m.Price, item.NumTickets))
	}
	if !CheckFunds(account, total).Allowed {
		return nil, insufficientFunds(account.Balance, total)
	}

	matchIDs := make([]uint, 0, len(remaining))
	for id := range remaining {
		matchIDs = append(matchIDs, id)
	}
	// Locks are always taken account first, then matches by ascending id.
	sort.Slice(matchIDs, func(i, j int) bool { return matchIDs[i] < matchIDs[j] })

	var (
		ids     []uint
		touched []*models.Match
	)
	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		acc, err := tx.GetAccount(ctx, accountKey)
		if err != nil {
			return lookupError(err, noAccount(accountKey))
		}
		locked := make(map[uint]*models.Match, len(matchIDs))
		for _, id := range matchIDs {
			m, err := tx.GetMatch(ctx, id)
			if err != nil {
				return lookupError(err, matchNotFound(id))
			}
			locked[id] = m
		}

		total := decimal.Zero
		for _, item := range items {
			m := locked[item.MatchID]
			if !CheckInventory(m, item.NumTickets).Allowed {
				return raceLostInventory(item.MatchID)
			}
			m.AvailableTickets -= item.NumTickets
			total = total.Add(models.Cost(m.Price, item.NumTickets))
		}
		if !CheckFunds(acc, total).Allowed {
			return raceLostFunds(accountKey)
		}

		for _, id := range matchIDs {
			if err := tx.UpdateMatch(ctx, locked[id]); err != nil {
				return err
			}
			touched = append(touched, locked[id])
		}
		acc.Balance = acc.Balance.Sub(total)
		if err := tx.UpdateAccount(ctx, acc); err != nil {
			return err
		}

		ids = make([]uint, 0, len(items))
		for _, item := range items {
			o := &models.Order{MatchID: item.MatchID, AccountID: accountKey, TicketsBought: item.NumTickets}
			if err := tx.CreateOrder(ctx, o); err != nil {
				return err
			}
			ids = append(ids, o.ID)
		}
		return nil
	})
	if err != nil {
		return nil, commitError(err, accountKey, 0)
	}

	s.publish(ctx, touched...)
	return ids, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Store.ListOrders(ctx)
}

// ListAccountOrders returns the orders of one account, oldest first.
func (s *OrderService) ListAccountOrders(ctx context.Context, accountKey string) ([]models.Order, error) {
	if _, err := s.Store.GetAccount(ctx, accountKey); err != nil {
		return nil, lookupError(err, noAccount(accountKey))
	}
	return s.Store.ListOrdersByAccount(ctx, accountKey)
}

// DeleteOrder removes the record only; inventory and balance are left alone.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	if err := s.Store.DeleteOrder(ctx, id); err != nil {
		return lookupError(err, newError(KindOrderNotFound, "Order with id %d not found", id))
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, matches ...*models.Match) {
	if s.Publisher == nil || len(matches) == 0 {
		return
	}
	s.Publisher.Publish(ctx, matches...)
}

func (s *OrderService) record(ctx context.Context, mode, accountKey string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := monitoring.OutcomeSuccess
	if err != nil {
		outcome = monitoring.OutcomeError
		if kind := KindOf(err); kind != "" {
			outcome = strings.ToLower(string(kind))
		}
	}
	monitoring.TrackPurchase(mode, outcome, elapsed)

	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{"mode", mode, "account", accountKey, "duration", elapsed}
	var domainErr *Error
	switch {
	case err == nil:
		log.InfoContext(ctx, "purchase committed", attrs...)
	case errors.As(err, &domainErr) && domainErr.Retryable():
		log.WarnContext(ctx, "purchase lost race", append(attrs, "kind", domainErr.Kind, "match_id", domainErr.MatchID)...)
	case errors.As(err, &domainErr):
		log.InfoContext(ctx, "purchase rejected", append(attrs, "kind", domainErr.Kind, "error", err)...)
	default:
		log.ErrorContext(ctx, "purchase failed", append(attrs, "error", err)...)
	}
}

// lookupError turns store.ErrNotFound into notFound and passes other errors through.
func lookupError(err error, notFound *Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}

// commitError maps a failed purchase transaction to the error the caller sees.
// Domain errors raised inside the transaction are returned as they are.
func commitError(err error, accountKey string, matchID uint) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, store.ErrTicketsConstraint):
		return raceLostInventory(matchID)
	case errors.Is(err, store.ErrBalanceConstraint):
		return raceLostFunds(accountKey)
	}
	return fmt.Errorf("purchase transaction: %w", err)
}
