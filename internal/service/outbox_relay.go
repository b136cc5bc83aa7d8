package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/rs/zerolog/log"
)

const relayBatchSize = 100

type greenUnitsHandoff struct {
	NoteID string            `json:"note_id"`
	Units  []dto.FinanceUnit `json:"units"`
}

// OutboxRelay delivers the hand-offs a triage stored with its note to the
// finance and assistance collaborators. Delivery is at least once: a message
// is marked sent only after its collaborator accepted it, so collaborators
// must tolerate a repeat.
type OutboxRelay struct {
	mu      sync.Mutex
	outbox  repository.OutboxRepository
	finance FinanceCollaborator
	repair  RepairCollaborator
	now     func() time.Time
}

func NewOutboxRelay(outbox repository.OutboxRepository, finance FinanceCollaborator, repair RepairCollaborator) *OutboxRelay {
	return &OutboxRelay{outbox: outbox, finance: finance, repair: repair, now: time.Now}
}

// Flush delivers pending messages oldest first and returns how many were
// sent. After a failure the remaining messages of the same note wait for the
// next flush, so a note's hand-offs keep their order; other notes proceed.
func (r *OutboxRelay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.outbox.Pending(ctx, relayBatchSize)
	if err != nil {
		return 0, fmt.Errorf("ler outbox: %w", err)
	}
	sent := 0
	blocked := map[string]bool{}
	var errs []error
	for _, m := range msgs {
		if blocked[m.NoteID] {
			continue
		}
		if err := r.deliver(ctx, m); err != nil {
			blocked[m.NoteID] = true
			errs = append(errs, fmt.Errorf("entregar %s da nota %s: %w", m.Kind, m.NoteID, err))
			if mErr := r.outbox.MarkFailed(ctx, m.ID, err.Error()); mErr != nil {
				errs = append(errs, mErr)
			}
			log.Warn().
				Str("note_id", m.NoteID).
				Str("kind", m.Kind).
				Int("attempts", m.Attempts+1).
				Err(err).
				Msg("outbox: delivery failed")
			continue
		}
		if err := r.outbox.MarkSent(ctx, m.ID, r.now()); err != nil {
			// Delivered but not stamped: the next flush repeats it.
			blocked[m.NoteID] = true
			errs = append(errs, fmt.Errorf("marcar outbox %d como enviado: %w", m.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Run flushes every interval until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Flush(ctx); err != nil {
				log.Warn().Err(err).Int("sent", n).Msg("outbox: flush incomplete")
			} else if n > 0 {
				log.Info().Int("sent", n).Msg("outbox: hand-offs delivered")
			}
		}
	}
}

func (r *OutboxRelay) deliver(ctx context.Context, m model.OutboxMessage) error {
	switch m.Kind {
	case model.HandoffGreenUnits:
		var p greenUnitsHandoff
		if err := json.Unmarshal([]byte(m.Payload), &p); err != nil {
			return err
		}
		return r.finance.ReceiveGreenUnits(ctx, p.NoteID, p.Units)
	case model.HandoffCreditNote:
		var cn model.SupplierCreditNote
		if err := json.Unmarshal([]byte(m.Payload), &cn); err != nil {
			return err
		}
		return r.finance.ReceiveCreditNote(ctx, cn)
	case model.HandoffRepairBatch:
		var b dto.RepairBatch
		if err := json.Unmarshal([]byte(m.Payload), &b); err != nil {
			return err
		}
		return r.repair.ReceiveRepairBatch(ctx, b)
	}
	return fmt.Errorf("tipo de entrega desconhecido %q", m.Kind)
}

func newOutboxMessage(kind, noteID string, payload any, at time.Time) (model.OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return model.OutboxMessage{}, fmt.Errorf("codificar %s: %w", kind, err)
	}
	return model.OutboxMessage{NoteID: noteID, Kind: kind, Payload: string(data), CreatedAt: at}, nil
}
