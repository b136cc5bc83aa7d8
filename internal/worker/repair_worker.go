package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RepairWorker opens assistance batches for the yellow units of a triage.
type RepairWorker struct {
	repo repository.RepairRepository
}

func NewRepairWorker(repo repository.RepairRepository) *RepairWorker {
	return &RepairWorker{repo: repo}
}

func (w *RepairWorker) HandleRepairBatch(ctx context.Context, raw json.RawMessage) error {
	var batch dto.RepairBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return fmt.Errorf("repair_worker: invalid payload: %w", err)
	}
	id, err := uuid.Parse(batch.BatchID)
	if err != nil {
		return fmt.Errorf("repair_worker: invalid batch id %q: %w", batch.BatchID, err)
	}
	b := &model.RepairBatch{ID: id, OriginNoteID: batch.OriginNoteID}
	for _, u := range batch.Units {
		b.Units = append(b.Units, model.RepairUnit{
			BatchID:      id,
			ProductID:    u.ProductID,
			IMEI:         u.IMEI,
			DefectReason: u.DefectReason,
		})
	}
	if err := w.repo.CreateBatch(ctx, b); err != nil {
		return err
	}
	log.Info().
		Str("batch_id", batch.BatchID).
		Str("note_id", batch.OriginNoteID).
		Int("units", len(b.Units)).
		Msg("repair_worker: repair batch opened")
	return nil
}

// Handlers maps every job type to the worker that processes it.
func Handlers(finance *FinanceWorker, repair *RepairWorker) map[string]Handler {
	return map[string]Handler{
		JobGreenUnits:  finance.HandleGreenUnits,
		JobCreditNote:  finance.HandleCreditNote,
		JobRepairBatch: repair.HandleRepairBatch,
	}
}
