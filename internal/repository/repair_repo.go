package repository

import (
	"context"
	"errors"

	"notaentrada/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepairRepository interface {
	CreateBatch(ctx context.Context, b *model.RepairBatch) error
	FindBatch(ctx context.Context, id uuid.UUID) (*model.RepairBatch, error)
}

type repairRepo struct{ db *gorm.DB }

func NewRepairRepository(db *gorm.DB) RepairRepository { return &repairRepo{db: db} }

// CreateBatch stores the batch and its units; a batch already stored is left as is.
func (r *repairRepo) CreateBatch(ctx context.Context, b *model.RepairBatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || len(b.Units) == 0 {
			return nil
		}
		for i := range b.Units {
			b.Units[i].BatchID = b.ID
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&b.Units).Error
	})
}

func (r *repairRepo) FindBatch(ctx context.Context, id uuid.UUID) (*model.RepairBatch, error) {
	var b model.RepairBatch
	err := r.db.WithContext(ctx).Preload("Units").First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
