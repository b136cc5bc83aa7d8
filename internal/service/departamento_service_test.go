package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listStock struct {
	units   []model.StockUnit
	filters []repository.StockUnitFilter
}

func (s *listStock) FindByIMEI(context.Context, string) (bool, error) { return false, nil }

func (s *listStock) ReceiveMigration(context.Context, string, []model.StockUnit) (int, error) {
	return 0, nil
}

func (s *listStock) List(_ context.Context, f repository.StockUnitFilter) ([]model.StockUnit, int64, error) {
	s.filters = append(s.filters, f)
	return s.units, int64(len(s.units)), nil
}

type storedFinance struct {
	notes map[string]model.SupplierCreditNote
	err   error
}

func (f *storedFinance) CreateEntries(context.Context, []model.FinanceEntry) error { return nil }

func (f *storedFinance) CreateCreditNote(context.Context, *model.SupplierCreditNote) error { return nil }

func (f *storedFinance) FindCreditNoteByNote(_ context.Context, noteID string) (*model.SupplierCreditNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	cn, ok := f.notes[noteID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cn, nil
}

type storedRepair struct{ batches map[uuid.UUID]model.RepairBatch }

func (r *storedRepair) CreateBatch(context.Context, *model.RepairBatch) error { return nil }

func (r *storedRepair) FindBatch(_ context.Context, id uuid.UUID) (*model.RepairBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func TestDepartamentos_ListarEstoque(t *testing.T) {
	imei := imeiFor(3)
	stock := &listStock{units: []model.StockUnit{{
		SourceLineID:  "PROD-NE-2026-00001-001-U001",
		SourceNoteID:  "NE-2026-00001",
		Destination:   model.DestinationSellable,
		IMEI:          &imei,
		Brand:         "Apple",
		Model:         "iPhone 13",
		Category:      model.CategoryNew,
		BatteryHealth: 100,
		Quantity:      1,
		UnitCost:      decimal.RequireFromString("2100.00"),
		CreatedAt:     time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC),
	}}}
	svc := NewDepartmentService(stock, &storedFinance{}, &storedRepair{})

	res, err := svc.ListStock(context.Background(), dto.StockFilter{NoteID: "NE-2026-00001", Destination: "Sellable"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.Limit)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "New", res.Data[0].Category)
	assert.Equal(t, "2026-03-11T09:30:00Z", res.Data[0].ReceivedAt)
	assert.Equal(t, model.DestinationSellable, stock.filters[0].Destination)
	assert.Equal(t, "NE-2026-00001", stock.filters[0].NoteID)

	_, err = svc.ListStock(context.Background(), dto.StockFilter{Destination: "Lixo"})
	de := requireKind(t, err, ErrValidation)
	assert.Equal(t, "destination", de.Field)
}

func TestDepartamentos_NotaDeCredito(t *testing.T) {
	cn := model.SupplierCreditNote{
		ID:           uuid.New(),
		Supplier:     "Distribuidora Alfa",
		Amount:       decimal.NewFromInt(1500),
		OriginNoteID: "NE-2026-00002",
		IssuedAt:     time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
	}
	fin := &storedFinance{notes: map[string]model.SupplierCreditNote{cn.OriginNoteID: cn}}
	svc := NewDepartmentService(&listStock{}, fin, &storedRepair{})
	ctx := context.Background()

	got, err := svc.GetCreditNote(ctx, "NE-2026-00002")
	require.NoError(t, err)
	assert.Equal(t, cn.ID.String(), got.ID)
	assert.True(t, cn.Amount.Equal(got.Amount))

	_, err = svc.GetCreditNote(ctx, "NE-2026-00099")
	de := requireKind(t, err, ErrNotFound)
	assert.Equal(t, "NE-2026-00099", de.NoteID)

	fin.err = errors.New("conexão recusada")
	_, err = svc.GetCreditNote(ctx, "NE-2026-00002")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "conexão recusada")
}

func TestDepartamentos_LoteDeAssistencia(t *testing.T) {
	id := uuid.New()
	rep := &storedRepair{batches: map[uuid.UUID]model.RepairBatch{id: {
		ID:           id,
		OriginNoteID: "NE-2026-00003",
		Units:        []model.RepairUnit{{BatchID: id, ProductID: "PROD-NE-2026-00003-002", DefectReason: "tela com manchas"}},
	}}}
	svc := NewDepartmentService(&listStock{}, &storedFinance{}, rep)
	ctx := context.Background()

	b, err := svc.GetRepairBatch(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "NE-2026-00003", b.OriginNoteID)
	require.Len(t, b.Units, 1)
	assert.Equal(t, "tela com manchas", b.Units[0].DefectReason)

	_, err = svc.GetRepairBatch(ctx, "lote-7")
	requireKind(t, err, ErrValidation)

	_, err = svc.GetRepairBatch(ctx, uuid.NewString())
	requireKind(t, err, ErrNotFound)
}
