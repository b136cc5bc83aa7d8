package repository

import (
	"context"

	"notaentrada/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockUnitFilter defines filters for listing stock units.
type StockUnitFilter struct {
	Destination model.StockDestination
	NoteID      string
	Page        int
	Limit       int
}

// StockRepository owns sellable stock and the pending-devices holding area.
type StockRepository interface {
	// FindByIMEI reports whether a unit with imei is already in stock.
	FindByIMEI(ctx context.Context, imei string) (bool, error)
	// ReceiveMigration inserts units keyed by source line; units already
	// received are skipped. Returns how many rows were inserted.
	ReceiveMigration(ctx context.Context, noteID string, units []model.StockUnit) (int, error)
	List(ctx context.Context, filter StockUnitFilter) ([]model.StockUnit, int64, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) FindByIMEI(ctx context.Context, imei string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockUnit{}).Where("imei = ?", imei).Count(&count).Error
	return count > 0, err
}

func (r *stockRepo) ReceiveMigration(ctx context.Context, noteID string, units []model.StockUnit) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}
	for i := range units {
		units[i].SourceNoteID = noteID
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "source_line_id"}}, DoNothing: true}).
		Create(&units)
	return int(res.RowsAffected), res.Error
}

func (r *stockRepo) List(ctx context.Context, filter StockUnitFilter) ([]model.StockUnit, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockUnit{})
	if filter.Destination != "" {
		q = q.Where("destination = ?", filter.Destination)
	}
	if filter.NoteID != "" {
		q = q.Where("source_note_id = ?", filter.NoteID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := normalizePage(filter.Page, filter.Limit)
	var units []model.StockUnit
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&units).Error
	return units, total, err
}
