package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seenimoa/sastocks/pkg/models"
)

// MetricFilter narrows ListDailyMetrics. Zero fields do not filter.
type MetricFilter struct {
	SymbolID uint
	From     string // inclusive YYYY-MM-DD
	To       string // inclusive YYYY-MM-DD
	Limit    int
}

// CreateDailyMetric inserts m and sets its generated ID.
func (s *Store) CreateDailyMetric(ctx context.Context, m *models.DailyMetric) error {
	return persistErr("create", "daily_metric", s.db.WithContext(ctx).Create(m).Error)
}

// UpsertDailyMetric stores m under its (SymbolID, MetricDate) key, overwriting
// every value column of an existing row. It runs in one transaction and the
// insert falls back to an update if a concurrent writer created the row
// first. created reports whether a new row was inserted.
func (s *Store) UpsertDailyMetric(ctx context.Context, m *models.DailyMetric) (created bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.DailyMetric
		err := tx.Where("symbol_id = ? AND metric_date = ?", m.SymbolID, m.MetricDate).Take(&existing).Error
		switch {
		case err == nil:
			res := tx.Model(&models.DailyMetric{}).Where("id = ?", existing.ID).Updates(metricValues(m))
			if res.Error != nil {
				return res.Error
			}
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "symbol_id"}, {Name: "metric_date"}},
				DoUpdates: clause.AssignmentColumns(models.MetricColumns),
			}).Create(m).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, persistErr("upsert", "daily_metric", err)
	}
	return created, nil
}

// metricValues lists the value columns of m for an in-place update. Null
// decimals are written as NULL.
func metricValues(m *models.DailyMetric) map[string]any {
	return map[string]any{
		"high":        m.High,
		"low":         m.Low,
		"open":        m.Open,
		"close":       m.Close,
		"after_hours": m.AfterHours,
		"volume":      m.Volume,
		"rsi":         m.RSI,
		"macd":        m.MACD,
	}
}

// DailyMetricByKey returns the metric for a symbol and date, or nil when absent.
func (s *Store) DailyMetricByKey(ctx context.Context, symbolID uint, date string) (*models.DailyMetric, error) {
	var m models.DailyMetric
	ok, err := first(s.db.WithContext(ctx).Where("symbol_id = ? AND metric_date = ?", symbolID, date), &m)
	if err != nil {
		return nil, persistErr("query", "daily_metric", err)
	}
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// ListDailyMetrics returns matching metrics ordered by date, then id.
func (s *Store) ListDailyMetrics(ctx context.Context, f MetricFilter) ([]models.DailyMetric, error) {
	q := s.db.WithContext(ctx).Model(&models.DailyMetric{})
	if f.SymbolID != 0 {
		q = q.Where("symbol_id = ?", f.SymbolID)
	}
	if f.From != "" {
		q = q.Where("metric_date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("metric_date <= ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.DailyMetric
	if err := q.Order("metric_date").Order("id").Find(&out).Error; err != nil {
		return nil, persistErr("query", "daily_metric", err)
	}
	return out, nil
}

// UpdateDailyMetric applies fields to the metric with the given id.
func (s *Store) UpdateDailyMetric(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateByID(ctx, "daily_metric", &models.DailyMetric{}, id, fields)
}

// DeleteDailyMetric removes the metric with the given id.
func (s *Store) DeleteDailyMetric(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, "daily_metric", &models.DailyMetric{}, id)
}
