package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/google/uuid"
)

// DepartmentService answers what each department received from the engine:
// migrated stock, supplier credit notes and repair batches.
type DepartmentService interface {
	ListStock(ctx context.Context, filter dto.StockFilter) (*dto.StockListResponse, error)
	GetCreditNote(ctx context.Context, noteID string) (*dto.CreditNoteResponse, error)
	GetRepairBatch(ctx context.Context, batchID string) (*dto.RepairBatch, error)
}

type departmentService struct {
	stock   repository.StockRepository
	finance repository.FinanceRepository
	repair  repository.RepairRepository
}

func NewDepartmentService(
	stock repository.StockRepository,
	finance repository.FinanceRepository,
	repair repository.RepairRepository,
) DepartmentService {
	return &departmentService{stock: stock, finance: finance, repair: repair}
}

func (s *departmentService) ListStock(ctx context.Context, filter dto.StockFilter) (*dto.StockListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	f := repository.StockUnitFilter{NoteID: filter.NoteID, Page: filter.Page, Limit: filter.Limit}
	switch d := model.StockDestination(filter.Destination); d {
	case "":
	case model.DestinationSellable, model.DestinationPendingDevices:
		f.Destination = d
	default:
		return nil, validationErr("", "", "destination", "destino inválido: %q", filter.Destination)
	}

	units, total, err := s.stock.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar estoque: %w", err)
	}
	data := make([]dto.StockUnitResponse, 0, len(units))
	for _, u := range units {
		data = append(data, dto.StockUnitResponse{
			SourceLineID:  u.SourceLineID,
			SourceNoteID:  u.SourceNoteID,
			Destination:   string(u.Destination),
			IMEI:          u.IMEI,
			Brand:         u.Brand,
			Model:         u.Model,
			Color:         u.Color,
			Category:      string(u.Category),
			BatteryHealth: u.BatteryHealth,
			Quantity:      u.Quantity,
			UnitCost:      u.UnitCost,
			ReceivedAt:    u.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.StockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// GetCreditNote returns the credit note issued at the triage of noteID. The
// finance worker writes it asynchronously, so it may lag the triage response.
func (s *departmentService) GetCreditNote(ctx context.Context, noteID string) (*dto.CreditNoteResponse, error) {
	cn, err := s.finance.FindCreditNoteByNote(ctx, noteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newDomainError(ErrNotFound, noteID, "", "", "nenhuma nota de crédito para a nota")
	}
	if err != nil {
		return nil, fmt.Errorf("buscar nota de crédito da nota %s: %w", noteID, err)
	}
	return creditNoteToResponse(cn), nil
}

func (s *departmentService) GetRepairBatch(ctx context.Context, batchID string) (*dto.RepairBatch, error) {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return nil, validationErr("", "", "batch_id", "identificador de lote inválido")
	}
	b, err := s.repair.FindBatch(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newDomainError(ErrNotFound, "", "", "batch_id", "lote de assistência não encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("buscar lote %s: %w", batchID, err)
	}
	out := &dto.RepairBatch{BatchID: b.ID.String(), OriginNoteID: b.OriginNoteID, Units: make([]dto.RepairUnit, 0, len(b.Units))}
	for _, u := range b.Units {
		out.Units = append(out.Units, dto.RepairUnit{ProductID: u.ProductID, IMEI: u.IMEI, DefectReason: u.DefectReason})
	}
	return out, nil
}
