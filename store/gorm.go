package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"match-ticket-system/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	pgCheckViolation  = "23514"
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

// OpenPostgres connects, sizes the pool and migrates the schema.
func OpenPostgres(dsn string, maxOpenConns int) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s := &GormStore{DB: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GormStore) Migrate() error {
	if err := s.DB.AutoMigrate(
		&models.Team{},
		&models.Competition{},
		&models.Match{},
		&models.Account{},
		&models.Order{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver and gorm errors onto the store sentinels.
// The driver error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, models.ErrNegativeBalance) {
		return fmt.Errorf("%w: %w", ErrBalanceConstraint, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			switch pgErr.ConstraintName {
			case models.TicketsConstraint, "chk_matches_capacity":
				return fmt.Errorf("%w: %w", ErrTicketsConstraint, err)
			case models.BalanceConstraint:
				return fmt.Errorf("%w: %w", ErrBalanceConstraint, err)
			}
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		case pgFKViolation:
			return fmt.Errorf("%w: %w", ErrInUse, err)
		}
	}
	return err
}

// --- reads ---

func (s *GormStore) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	var a models.Account
	if err := s.DB.WithContext(ctx).First(&a, "user_id = ?", userID).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (s *GormStore) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var m models.Match
	err := s.DB.WithContext(ctx).
		Preload("LocalTeam").
		Preload("VisitorTeam").
		Preload("Competition").
		First(&m, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (s *GormStore) ListMatches(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	err := s.DB.WithContext(ctx).
		Preload("LocalTeam").
		Preload("VisitorTeam").
		Preload("Competition").
		Order("date ASC, id ASC").
		Find(&matches).Error
	return matches, translateError(err)
}

func (s *GormStore) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var t models.Team
	if err := s.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (s *GormStore) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	var t models.Team
	if err := s.DB.WithContext(ctx).Where("name = ? OR slug = ?", name, name).First(&t).Error; err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (s *GormStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&teams).Error
	return teams, translateError(err)
}

func (s *GormStore) GetCompetition(ctx context.Context, id uint) (*models.Competition, error) {
	return s.findCompetition(ctx, "id = ?", id)
}

func (s *GormStore) GetCompetitionByName(ctx context.Context, name string) (*models.Competition, error) {
	return s.findCompetition(ctx, "name = ? OR slug = ?", name, name)
}

func (s *GormStore) findCompetition(ctx context.Context, query string, args ...interface{}) (*models.Competition, error) {
	var c models.Competition
	err := s.DB.WithContext(ctx).
		Preload("Teams", func(db *gorm.DB) *gorm.DB { return db.Order("teams.name ASC") }).
		Preload("Matches", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Where(query, args...).
		First(&c).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

func (s *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Order("id ASC").Find(&orders).Error
	return orders, translateError(err)
}

func (s *GormStore) ListOrdersByAccount(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Where("account_id = ?", userID).Order("id ASC").Find(&orders).Error
	return orders, translateError(err)
}

// Soft-deleted matches keep their foreign keys, so they are counted too.
func (s *GormStore) CountMatchesForTeam(ctx context.Context, teamID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Unscoped().Model(&models.Match{}).
		Where("local_id = ? OR visitor_id = ?", teamID, teamID).
		Count(&n).Error
	return n, translateError(err)
}

func (s *GormStore) CountMatchesForCompetition(ctx context.Context, competitionID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Unscoped().Model(&models.Match{}).
		Where("competition_id = ?", competitionID).
		Count(&n).Error
	return n, translateError(err)
}

// --- transactions ---

type gormTx struct {
	db *gorm.DB
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
	return translateError(err)
}

func (t *gormTx) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	var a models.Account
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "user_id = ?", userID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (t *gormTx) GetMatch(ctx context.Context, id uint) (*models.Match, error) {
	var m models.Match
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (t *gormTx) UpdateMatch(ctx context.Context, m *models.Match) error {
	res := t.db.WithContext(ctx).Model(m).
		Select("date", "price", "available_tickets", "updated_at").
		Updates(m)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) UpdateAccount(ctx context.Context, a *models.Account) error {
	res := t.db.WithContext(ctx).Model(a).Select("balance", "updated_at").Updates(a)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *gormTx) CreateOrder(ctx context.Context, o *models.Order) error {
	return translateError(t.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error)
}

// --- accounts ---

func (s *GormStore) CreateAccount(ctx context.Context, a *models.Account) error {
	return translateError(s.DB.WithContext(ctx).Create(a).Error)
}

func (s *GormStore) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) (*models.Account, error) {
	var out *models.Account
	err := s.Transaction(ctx, func(tx Tx) error {
		a, err := tx.GetAccount(ctx, userID)
		if err != nil {
			return err
		}
		a.Balance = balance
		if err := tx.UpdateAccount(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

// --- matches ---

func (s *GormStore) CreateMatch(ctx context.Context, m *models.Match) error {
	return translateError(s.DB.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *GormStore) UpdateMatchFunc(ctx context.Context, id uint, fn func(m *models.Match) error) (*models.Match, error) {
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

// DeleteMatch soft-deletes: the row stays for its orders.
func (s *GormStore) DeleteMatch(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Match{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- teams ---

// CreateTeam honors a preset ID and moves the id sequence past it.
func (s *GormStore) CreateTeam(ctx context.Context, t *models.Team) error {
	explicitID := t.ID != 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		if !explicitID {
			return nil
		}
		return tx.Exec("SELECT setval(pg_get_serial_sequence('teams', 'id'), (SELECT MAX(id) FROM teams))").Error
	})
	return translateError(err)
}

func (s *GormStore) SaveTeam(ctx context.Context, t *models.Team) error {
	return translateError(s.DB.WithContext(ctx).Omit(clause.Associations).Save(t).Error)
}

func (s *GormStore) DeleteTeam(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Select("Competitions").Delete(&models.Team{ID: id})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- competitions ---

func (s *GormStore) CreateCompetition(ctx context.Context, c *models.Competition) error {
	return translateError(s.DB.WithContext(ctx).Omit("Teams.*", "Matches").Create(c).Error)
}

func (s *GormStore) SaveCompetition(ctx context.Context, c *models.Competition) error {
	return translateError(s.DB.WithContext(ctx).Omit(clause.Associations).Save(c).Error)
}

func (s *GormStore) DeleteCompetition(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Select("Teams").Delete(&models.Competition{ID: id})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- orders ---

func (s *GormStore) DeleteOrder(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
