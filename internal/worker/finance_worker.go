package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/rs/zerolog/log"
)

// FinanceWorker records triage outcomes on the finance side: green units as
// sellable-and-available entries and supplier credit notes.
type FinanceWorker struct {
	repo repository.FinanceRepository
}

func NewFinanceWorker(repo repository.FinanceRepository) *FinanceWorker {
	return &FinanceWorker{repo: repo}
}

func (w *FinanceWorker) HandleGreenUnits(ctx context.Context, raw json.RawMessage) error {
	var payload GreenUnitsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("finance_worker: invalid payload: %w", err)
	}
	if len(payload.Units) == 0 {
		log.Warn().Str("note_id", payload.NoteID).Msg("finance_worker: empty green unit list, skipping")
		return nil
	}
	entries := make([]model.FinanceEntry, 0, len(payload.Units))
	for _, u := range payload.Units {
		entries = append(entries, model.FinanceEntry{
			ProductID:    u.ProductID,
			OriginNoteID: payload.NoteID,
			IMEI:         u.IMEI,
			TotalCost:    u.TotalCost,
		})
	}
	if err := w.repo.CreateEntries(ctx, entries); err != nil {
		return err
	}
	log.Info().Str("note_id", payload.NoteID).Int("units", len(entries)).Msg("finance_worker: green units received")
	return nil
}

func (w *FinanceWorker) HandleCreditNote(ctx context.Context, raw json.RawMessage) error {
	var cn model.SupplierCreditNote
	if err := json.Unmarshal(raw, &cn); err != nil {
		return fmt.Errorf("finance_worker: invalid credit note: %w", err)
	}
	if err := w.repo.CreateCreditNote(ctx, &cn); err != nil {
		return err
	}
	log.Info().
		Str("note_id", cn.OriginNoteID).
		Str("supplier", cn.Supplier).
		Str("amount", cn.Amount.StringFixed(2)).
		Msg("finance_worker: supplier credit note recorded")
	return nil
}
