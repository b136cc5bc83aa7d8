package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockDestination is where a conferred unit lands after migration.
type StockDestination string

const (
	DestinationSellable       StockDestination = "Sellable"
	DestinationPendingDevices StockDestination = "PendingDevices"
)

// StockUnit is one conferred unit received into sellable stock or into the
// pending-devices holding area. SourceLineID is unique so a migration replay
// inserts nothing.
type StockUnit struct {
	ID            uint             `gorm:"primaryKey"`
	SourceLineID  string           `gorm:"type:varchar(64);uniqueIndex;not null"`
	SourceNoteID  string           `gorm:"type:varchar(32);index;not null"`
	Destination   StockDestination `gorm:"type:varchar(16);not null;index"`
	IMEI          *string          `gorm:"type:varchar(20);index"`
	Brand         string           `gorm:"not null"`
	Model         string           `gorm:"not null"`
	Color         *string
	Category      Category        `gorm:"type:varchar(12);not null"`
	BatteryHealth int             `gorm:"not null"`
	Quantity      int             `gorm:"not null"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time
}

func (StockUnit) TableName() string { return "estoque_unidades" }
