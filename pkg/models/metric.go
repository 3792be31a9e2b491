package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyMetric is one day's price and indicator snapshot for a Symbol.
// (SymbolID, MetricDate) is unique and acts as the upsert key.
type DailyMetric struct {
	ID         uint                `gorm:"primaryKey"                                        json:"id"`
	MetricDate string              `gorm:"size:10;not null;uniqueIndex:idx_metric_symbol_date,priority:2" json:"metric_date"` // YYYY-MM-DD
	SymbolID   uint                `gorm:"not null;uniqueIndex:idx_metric_symbol_date,priority:1"         json:"symbol_id"`
	High       decimal.NullDecimal `gorm:"type:decimal(20,6)"                                json:"high"`
	Low        decimal.NullDecimal `gorm:"type:decimal(20,6)"                                json:"low"`
	Open       decimal.NullDecimal `gorm:"type:decimal(20,6)"                                json:"open"`
	Close      decimal.NullDecimal `gorm:"type:decimal(20,6)"                                json:"close"`
	AfterHours decimal.NullDecimal `gorm:"type:decimal(20,6)"                                json:"after_hours"`
	Volume     decimal.NullDecimal `gorm:"type:decimal(24,4)"                                json:"volume"`
	RSI        decimal.NullDecimal `gorm:"type:decimal(20,10)"                               json:"rsi"`
	MACD       decimal.NullDecimal `gorm:"type:decimal(20,10)"                               json:"macd"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (DailyMetric) TableName() string { return "daily_metrics" }

// MetricColumns lists the value columns overwritten by an upsert.
var MetricColumns = []string{
	"high", "low", "open", "close", "after_hours", "volume", "rsi", "macd", "updated_at",
}
