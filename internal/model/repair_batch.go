package model

import (
	"time"

	"github.com/google/uuid"
)

// RepairBatch groups the defective units of one triage sent to assistance.
type RepairBatch struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OriginNoteID string    `gorm:"type:varchar(32);index;not null"`
	CreatedAt    time.Time

	Units []RepairUnit `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

func (RepairBatch) TableName() string { return "assistencia_lotes" }

type RepairUnit struct {
	ID           uint      `gorm:"primaryKey"`
	BatchID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID    string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	IMEI         *string   `gorm:"type:varchar(20)"`
	DefectReason string    `gorm:"not null"`
}

func (RepairUnit) TableName() string { return "assistencia_unidades" }
