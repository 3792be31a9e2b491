// Package store persists symbols, news articles and daily metrics in a
// relational database through gorm. A *Store is constructed once and passed
// to every component that needs it.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seenimoa/sastocks/pkg/models"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrNotFound is wrapped by update and delete operations that matched no row.
var ErrNotFound = errors.New("store: record not found")

// ErrPersistence is returned when a store operation fails.
type ErrPersistence struct {
	Op     string // "create", "update", "delete", "query", "upsert", "migrate"
	Entity string // "symbol", "article", "daily_metric"
	Err    error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

func persistErr(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrPersistence{Op: op, Entity: entity, Err: err}
}

// Store is the entity store.
type Store struct {
	db *gorm.DB
}

// Open connects to the database identified by driver and dsn and creates
// any missing tables.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection also keeps
		// in-memory databases alive for the lifetime of the store.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: open %s: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.Symbol{}, &models.Article{}, &models.DailyMetric{}); err != nil {
		return nil, persistErr("migrate", "schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Counts summarises table sizes.
type Counts struct {
	Symbols  int64 `json:"symbols"`
	Articles int64 `json:"articles"`
	Metrics  int64 `json:"daily_metrics"`
}

// Counts returns the number of rows in each table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Symbol{}).Count(&c.Symbols).Error; err != nil {
		return c, persistErr("query", "symbol", err)
	}
	if err := db.Model(&models.Article{}).Count(&c.Articles).Error; err != nil {
		return c, persistErr("query", "article", err)
	}
	if err := db.Model(&models.DailyMetric{}).Count(&c.Metrics).Error; err != nil {
		return c, persistErr("query", "daily_metric", err)
	}
	return c, nil
}

// updateByID applies fields to the row of model's table with the given id.
func (s *Store) updateByID(ctx context.Context, entity string, model any, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return persistErr("update", entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return persistErr("update", entity, fmt.Errorf("id %d: %w", id, ErrNotFound))
	}
	return nil
}

// deleteByID removes the row of model's table with the given id.
func (s *Store) deleteByID(ctx context.Context, entity string, model any, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return persistErr("delete", entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return persistErr("delete", entity, fmt.Errorf("id %d: %w", id, ErrNotFound))
	}
	return nil
}

// first loads a single row matching query into dest. It returns false
// without error when nothing matches.
func first(db *gorm.DB, dest any) (bool, error) {
	err := db.Order("id").Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
