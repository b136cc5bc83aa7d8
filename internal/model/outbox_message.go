package model

import (
	"time"
)

// Hand-off kinds carried by the outbox.
const (
	HandoffGreenUnits  = "green_units"
	HandoffCreditNote  = "credit_note"
	HandoffRepairBatch = "repair_batch"
)

// OutboxMessage is a department hand-off stored in the same transaction as
// the note change that produced it. The relay delivers it afterwards and
// stamps SentAt; until then it stays pending and is retried.
type OutboxMessage struct {
	ID        uint       `gorm:"primaryKey"`
	NoteID    string     `gorm:"type:varchar(32);not null;index"`
	Kind      string     `gorm:"type:varchar(24);not null"`
	Payload   string     `gorm:"type:text;not null"` // JSON
	Attempts  int        `gorm:"not null;default:0"`
	LastError string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null"`
	SentAt    *time.Time `gorm:"index"`
}

func (OutboxMessage) TableName() string { return "nota_entrada_outbox" }

func (m OutboxMessage) Clone() OutboxMessage {
	c := m
	if m.SentAt != nil {
		at := *m.SentAt
		c.SentAt = &at
	}
	return c
}
