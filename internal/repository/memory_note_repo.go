package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"notaentrada/internal/model"
)

// MemoryNoteRepository keeps notes in process memory. It stores and returns
// deep copies, so callers never share state with the store.
type MemoryNoteRepository struct {
	mu       sync.RWMutex
	notes    map[string]*model.IncomingNote
	payments map[string][]model.NotePayment
	outbox   []model.OutboxMessage
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{
		notes:    make(map[string]*model.IncomingNote),
		payments: make(map[string][]model.NotePayment),
	}
}

var (
	_ NoteRepository   = (*MemoryNoteRepository)(nil)
	_ OutboxRepository = (*MemoryNoteRepository)(nil)
)

func (r *MemoryNoteRepository) Get(_ context.Context, id string) (*model.IncomingNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n.Clone(), nil
}

func (r *MemoryNoteRepository) Save(ctx context.Context, note *model.IncomingNote) error {
	return r.Apply(ctx, NoteChange{Note: note})
}

func (r *MemoryNoteRepository) Apply(_ context.Context, change NoteChange) error {
	stored := change.Note.Clone()
	for i := range stored.Products {
		stored.Products[i].NoteID = stored.ID
		stored.Products[i].Position = i
	}
	for i := range stored.Timeline {
		stored.Timeline[i].NoteID = stored.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The timeline is append-only: keep the stored prefix, take only new events.
	if prev, ok := r.notes[stored.ID]; ok {
		var fresh []model.TimelineEvent
		if len(stored.Timeline) > len(prev.Timeline) {
			fresh = stored.Timeline[len(prev.Timeline):]
		}
		stored.Timeline = append(append([]model.TimelineEvent(nil), prev.Timeline...), fresh...)
	}
	r.notes[stored.ID] = stored
	if change.Payment != nil {
		r.payments[stored.ID] = append(r.payments[stored.ID], *change.Payment)
	}
	for _, m := range change.Outbox {
		m = m.Clone()
		m.ID = uint(len(r.outbox) + 1)
		m.NoteID = stored.ID
		r.outbox = append(r.outbox, m)
	}
	return nil
}

func (r *MemoryNoteRepository) List(_ context.Context, filter NoteFilter) ([]model.IncomingNote, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []model.IncomingNote
	for _, n := range r.notes {
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Actuator != "" && n.CurrentActuator != filter.Actuator {
			continue
		}
		if filter.Supplier != "" && !strings.Contains(strings.ToLower(n.Supplier), strings.ToLower(filter.Supplier)) {
			continue
		}
		if filter.Urgent != nil && n.Urgent != *filter.Urgent {
			continue
		}
		matched = append(matched, *n.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Urgent != matched[j].Urgent {
			return matched[i].Urgent
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	page, limit := normalizePage(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start >= len(matched) {
		return []model.IncomingNote{}, total, nil
	}
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (r *MemoryNoteRepository) FindLinesByIMEI(_ context.Context, imei string) ([]model.ProductLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var lines []model.ProductLine
	for _, n := range r.notes {
		for _, l := range n.Products {
			if l.IMEI != nil && *l.IMEI == imei {
				lines = append(lines, l.Clone())
			}
		}
	}
	return lines, nil
}

func (r *MemoryNoteRepository) ListPayments(_ context.Context, noteID string) ([]model.NotePayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.NotePayment(nil), r.payments[noteID]...), nil
}

func (r *MemoryNoteRepository) Pending(_ context.Context, limit int) ([]model.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.OutboxMessage
	for _, m := range r.outbox {
		if len(out) == limit {
			break
		}
		if m.SentAt == nil {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *MemoryNoteRepository) MarkSent(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || int(id) > len(r.outbox) {
		return ErrNotFound
	}
	if m := &r.outbox[id-1]; m.SentAt == nil {
		m.SentAt = &at
		m.LastError = ""
	}
	return nil
}

func (r *MemoryNoteRepository) MarkFailed(_ context.Context, id uint, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || int(id) > len(r.outbox) {
		return ErrNotFound
	}
	r.outbox[id-1].Attempts++
	r.outbox[id-1].LastError = reason
	return nil
}
