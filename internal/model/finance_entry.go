package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinanceEntry is a triaged unit released to finance as sellable-and-available.
type FinanceEntry struct {
	ID           uint            `gorm:"primaryKey"`
	ProductID    string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	OriginNoteID string          `gorm:"type:varchar(32);index;not null"`
	IMEI         *string         `gorm:"type:varchar(20)"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time
}

func (FinanceEntry) TableName() string { return "financeiro_unidades" }
