package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierCreditNote is issued at triage for defective units returned to the
// supplier. At most one exists per triage call.
type SupplierCreditNote struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Supplier     string          `gorm:"not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OriginNoteID string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	IssuedAt     time.Time       `gorm:"not null"`
}

func (SupplierCreditNote) TableName() string { return "notas_credito_fornecedor" }
