package repository

import (
	"context"
	"errors"
	"fmt"

	"notaentrada/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when the requested note does not exist.
var ErrNotFound = errors.New("record not found")

// NoteFilter defines filters for listing notes.
type NoteFilter struct {
	Status   model.NoteStatus
	Actuator model.Actuator
	Supplier string
	Urgent   *bool
	Page     int
	Limit    int
}

// NoteChange is everything written together with a note in one transaction.
// Outbox messages are only ever stored alongside the change that caused them.
type NoteChange struct {
	Note    *model.IncomingNote
	Payment *model.NotePayment
	Outbox  []model.OutboxMessage
}

// NoteRepository is the single source of truth for notes, their product lines
// and their timeline. Get returns the full note graph.
type NoteRepository interface {
	Get(ctx context.Context, id string) (*model.IncomingNote, error)
	Save(ctx context.Context, note *model.IncomingNote) error
	Apply(ctx context.Context, change NoteChange) error
	List(ctx context.Context, filter NoteFilter) ([]model.IncomingNote, int64, error)
	// FindLinesByIMEI returns every product line, of any note, carrying imei.
	FindLinesByIMEI(ctx context.Context, imei string) ([]model.ProductLine, error)
	ListPayments(ctx context.Context, noteID string) ([]model.NotePayment, error)
}

type noteRepo struct{ db *gorm.DB }

func NewNoteRepository(db *gorm.DB) NoteRepository { return &noteRepo{db: db} }

func (r *noteRepo) Get(ctx context.Context, id string) (*model.IncomingNote, error) {
	var n model.IncomingNote
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *noteRepo) Save(ctx context.Context, note *model.IncomingNote) error {
	return r.Apply(ctx, NoteChange{Note: note})
}

// Apply writes the note row, replaces its product lines and appends the
// timeline events not yet stored. Existing events are never updated.
func (r *noteRepo) Apply(ctx context.Context, change NoteChange) error {
	note := change.Note
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(note).Error; err != nil {
			return fmt.Errorf("save note: %w", err)
		}

		keep := make([]string, 0, len(note.Products))
		for i := range note.Products {
			note.Products[i].NoteID = note.ID
			note.Products[i].Position = i
			keep = append(keep, note.Products[i].ID)
		}
		del := tx.Where("note_id = ?", note.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&model.ProductLine{}).Error; err != nil {
			return fmt.Errorf("prune product lines: %w", err)
		}
		if len(note.Products) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&note.Products).Error; err != nil {
				return fmt.Errorf("upsert product lines: %w", err)
			}
		}

		if len(note.Timeline) > 0 {
			for i := range note.Timeline {
				note.Timeline[i].NoteID = note.ID
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&note.Timeline).Error; err != nil {
				return fmt.Errorf("append timeline: %w", err)
			}
		}

		if change.Payment != nil {
			if err := tx.Create(change.Payment).Error; err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
		}

		if len(change.Outbox) > 0 {
			for i := range change.Outbox {
				change.Outbox[i].NoteID = note.ID
			}
			if err := tx.Create(&change.Outbox).Error; err != nil {
				return fmt.Errorf("insert outbox: %w", err)
			}
		}
		return nil
	})
}

func (r *noteRepo) List(ctx context.Context, filter NoteFilter) ([]model.IncomingNote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.IncomingNote{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Actuator != "" {
		q = q.Where("current_actuator = ?", filter.Actuator)
	}
	if filter.Supplier != "" {
		q = q.Where("supplier ILIKE ?", "%"+filter.Supplier+"%")
	}
	if filter.Urgent != nil {
		q = q.Where("urgent = ?", *filter.Urgent)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var notes []model.IncomingNote
	err := q.Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("urgent DESC, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notes).Error
	return notes, total, err
}

func (r *noteRepo) FindLinesByIMEI(ctx context.Context, imei string) ([]model.ProductLine, error) {
	var lines []model.ProductLine
	err := r.db.WithContext(ctx).Where("imei = ?", imei).Find(&lines).Error
	return lines, err
}

func (r *noteRepo) ListPayments(ctx context.Context, noteID string) ([]model.NotePayment, error) {
	var payments []model.NotePayment
	err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("paid_at ASC").Find(&payments).Error
	return payments, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return page, limit
}
