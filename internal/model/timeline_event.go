package model

import (
	"time"

	"github.com/google/uuid"
)

// Timeline actions recorded by the conference engine.
const (
	ActionCreated            = "Created"
	ActionDispatched         = "Dispatched"
	ActionPaymentRegistered  = "PaymentRegistered"
	ActionCadastrated        = "Cadastrated"
	ActionExploded           = "Exploded"
	ActionCollapsed          = "Collapsed"
	ActionFieldsSubmitted    = "FieldsSubmitted"
	ActionConferred          = "Conferred"
	ActionMigrated           = "Migrated"
	ActionTriageCompleted    = "TriageCompleted"
	ActionDivergenceDetected = "DivergenceDetected"
)

// TimelineEvent is an immutable entry of a note's audit trail.
// Events are never modified or deleted; Seq preserves insertion order.
type TimelineEvent struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	NoteID         string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_timeline_note_seq"`
	Seq            int        `gorm:"not null;uniqueIndex:idx_timeline_note_seq"`
	Timestamp      time.Time  `gorm:"not null"`
	Actor          string     `gorm:"not null"`
	Action         string     `gorm:"type:varchar(32);not null"`
	PreviousStatus NoteStatus `gorm:"type:varchar(24);not null"`
	NewStatus      NoteStatus `gorm:"type:varchar(24);not null"`
	Details        string
}

func (TimelineEvent) TableName() string { return "nota_entrada_timeline" }
