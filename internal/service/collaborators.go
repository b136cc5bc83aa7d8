package service

import (
	"context"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
)

// StockCollaborator is the stock department as seen by the engine.
// ReceiveMigration must be idempotent per source line.
type StockCollaborator interface {
	FindByIMEI(ctx context.Context, imei string) (bool, error)
	ReceiveMigration(ctx context.Context, noteID string, units []model.StockUnit) (int, error)
}

// FinanceCollaborator receives green units and supplier credit notes.
type FinanceCollaborator interface {
	ReceiveGreenUnits(ctx context.Context, noteID string, units []dto.FinanceUnit) error
	ReceiveCreditNote(ctx context.Context, cn model.SupplierCreditNote) error
}

// RepairCollaborator receives the repair batch of a triage.
type RepairCollaborator interface {
	ReceiveRepairBatch(ctx context.Context, batch dto.RepairBatch) error
}
