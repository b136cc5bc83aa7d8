package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotePayment is an immutable finance ledger row for a note.
// Payments are NEVER modified; corrections are out of scope for the engine.
type NotePayment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NoteID string          `gorm:"type:varchar(32);not null;index"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method PaymentMethod   `gorm:"type:varchar(8);not null"`
	Actor  string          `gorm:"not null"`
	PaidAt time.Time       `gorm:"not null"`
}

func (NotePayment) TableName() string { return "nota_entrada_pagamentos" }
