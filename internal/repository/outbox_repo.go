package repository

import (
	"context"
	"time"

	"notaentrada/internal/model"

	"gorm.io/gorm"
)

// OutboxRepository reads and settles the hand-offs stored by NoteRepository.Apply.
type OutboxRepository interface {
	// Pending returns up to limit undelivered messages, oldest first.
	Pending(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, reason string) error
}

type outboxRepo struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) OutboxRepository { return &outboxRepo{db: db} }

func (r *outboxRepo) Pending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var msgs []model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *outboxRepo) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ? AND sent_at IS NULL", id).
		Updates(map[string]any{"sent_at": at, "last_error": ""}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
