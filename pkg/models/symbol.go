// Package models defines the persisted entities shared across sastocks.
package models

import "time"

// Symbol is a tracked stock ticker.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"                      json:"id"`
	Ticker    string    `gorm:"size:16;uniqueIndex;not null"    json:"ticker"` // e.g., "AAPL"
	Name      string    `gorm:"size:255;not null"               json:"name"`   // e.g., "Apple Inc."
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name so it does not depend on pluralisation rules.
func (Symbol) TableName() string { return "symbols" }

// UnknownName is stored when the provider omits a company or author name.
const UnknownName = "Unknown"
