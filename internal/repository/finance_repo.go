package repository

import (
	"context"
	"errors"

	"notaentrada/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FinanceRepository persists what the finance department receives from triage.
// Both writes are idempotent so a redelivered job changes nothing.
type FinanceRepository interface {
	CreateEntries(ctx context.Context, entries []model.FinanceEntry) error
	CreateCreditNote(ctx context.Context, cn *model.SupplierCreditNote) error
	FindCreditNoteByNote(ctx context.Context, noteID string) (*model.SupplierCreditNote, error)
}

type financeRepo struct{ db *gorm.DB }

func NewFinanceRepository(db *gorm.DB) FinanceRepository { return &financeRepo{db: db} }

func (r *financeRepo) CreateEntries(ctx context.Context, entries []model.FinanceEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "product_id"}}, DoNothing: true}).
		Create(&entries).Error
}

func (r *financeRepo) CreateCreditNote(ctx context.Context, cn *model.SupplierCreditNote) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "origin_note_id"}}, DoNothing: true}).
		Create(cn).Error
}

func (r *financeRepo) FindCreditNoteByNote(ctx context.Context, noteID string) (*model.SupplierCreditNote, error) {
	var cn model.SupplierCreditNote
	err := r.db.WithContext(ctx).Where("origin_note_id = ?", noteID).First(&cn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cn, nil
}
