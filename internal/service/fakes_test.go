package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/numbering"
	"notaentrada/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Fakes ────────────────────────────────────────────────────────────────────

// fakeStock is an in-memory StockCollaborator keyed by source line.
type fakeStock struct {
	mu       sync.Mutex
	imeis    map[string]bool
	received map[string]model.StockUnit
	calls    int
}

func newFakeStock() *fakeStock {
	return &fakeStock{imeis: map[string]bool{}, received: map[string]model.StockUnit{}}
}

func (s *fakeStock) FindByIMEI(_ context.Context, imei string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imeis[imei], nil
}

func (s *fakeStock) ReceiveMigration(_ context.Context, _ string, units []model.StockUnit) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	inserted := 0
	for _, u := range units {
		if _, ok := s.received[u.SourceLineID]; ok {
			continue
		}
		s.received[u.SourceLineID] = u
		inserted++
	}
	return inserted, nil
}

var _ StockCollaborator = (*fakeStock)(nil)

type fakeFinance struct {
	green       map[string][]dto.FinanceUnit
	creditNotes []model.SupplierCreditNote
	err         error
}

func newFakeFinance() *fakeFinance {
	return &fakeFinance{green: map[string][]dto.FinanceUnit{}}
}

func (f *fakeFinance) ReceiveGreenUnits(_ context.Context, noteID string, units []dto.FinanceUnit) error {
	if f.err != nil {
		return f.err
	}
	f.green[noteID] = append(f.green[noteID], units...)
	return nil
}

func (f *fakeFinance) ReceiveCreditNote(_ context.Context, cn model.SupplierCreditNote) error {
	if f.err != nil {
		return f.err
	}
	f.creditNotes = append(f.creditNotes, cn)
	return nil
}

var _ FinanceCollaborator = (*fakeFinance)(nil)

type fakeRepair struct {
	batches []dto.RepairBatch
	err     error
}

func (r *fakeRepair) ReceiveRepairBatch(_ context.Context, batch dto.RepairBatch) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, batch)
	return nil
}

var _ RepairCollaborator = (*fakeRepair)(nil)

var errCollaboratorDown = errors.New("collaborator down")

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	repo    *repository.MemoryNoteRepository
	stock   *fakeStock
	finance *fakeFinance
	repair  *fakeRepair
	relay   *OutboxRelay
	notes   NoteService
	triage  TriageService
}

func newFixture(policy CreditNotePolicy) *fixture {
	repo := repository.NewMemoryNoteRepository()
	stock := newFakeStock()
	finance := newFakeFinance()
	repair := &fakeRepair{}
	relay := NewOutboxRelay(repo, finance, repair)
	return &fixture{
		repo:    repo,
		stock:   stock,
		finance: finance,
		repair:  repair,
		relay:   relay,
		notes:   NewNoteService(repo, numbering.NewGenerator(numbering.NewMemoryCounter()), stock),
		triage:  NewTriageService(repo, relay, policy),
	}
}

const testActor = "maria"

func imeiFor(i int) string { return fmt.Sprintf("35209900176%04d", i) }

func ptr[T any](v T) *T { return &v }

func deviceLine(qty int, cost string) dto.ProductLineInput {
	return dto.ProductLineInput{
		ProductType: "Device",
		Brand:       "Apple",
		Model:       "iPhone 13",
		Quantity:    qty,
		UnitCost:    decimal.RequireFromString(cost),
	}
}

func accessoryLine(qty int, cost string) dto.ProductLineInput {
	return dto.ProductLineInput{
		ProductType: "Accessory",
		Brand:       "Baseus",
		Model:       "Carregador 20W",
		Quantity:    qty,
		UnitCost:    decimal.RequireFromString(cost),
	}
}

func noteRequest(paymentType string, products ...dto.ProductLineInput) dto.CreateNoteRequest {
	return dto.CreateNoteRequest{
		Supplier:      "Distribuidora Alfa",
		EntryDate:     "2026-03-10",
		Responsible:   "joao",
		PaymentType:   paymentType,
		PaymentMethod: "Cash",
		QtyInformed:   10,
		Products:      products,
	}
}

// createStockNote creates a post-payment note and cadastrates lines.
func (f *fixture) createStockNote(t *testing.T, lines ...dto.ProductLineInput) *dto.NoteResponse {
	t.Helper()
	ctx := context.Background()
	n, err := f.notes.CreateNote(ctx, testActor, noteRequest("PaymentPost"))
	require.NoError(t, err)
	n, err = f.notes.AddProductLines(ctx, n.ID, testActor, dto.AddProductLinesRequest{Products: lines})
	require.NoError(t, err)
	return n
}

// submitDevice fills IMEI, color and category on a single-unit device line.
func (f *fixture) submitDevice(t *testing.T, noteID, lineID, imei, category string) *dto.SubmitFieldsResponse {
	t.Helper()
	resp, err := f.notes.SubmitFieldsForLine(context.Background(), noteID, lineID, testActor, dto.SubmitFieldsRequest{
		IMEI:     imei,
		Color:    "Preto",
		Category: category,
	})
	require.NoError(t, err)
	return resp
}

// conferredDeviceNote returns a FullConference note with one single-unit
// device line per category given.
func (f *fixture) conferredDeviceNote(t *testing.T, firstIMEI int, categories ...string) *dto.NoteResponse {
	t.Helper()
	lines := make([]dto.ProductLineInput, len(categories))
	for i := range categories {
		lines[i] = deviceLine(1, "1000.00")
	}
	n := f.createStockNote(t, lines...)
	ids := make([]string, 0, len(n.Products))
	for i, p := range n.Products {
		f.submitDevice(t, n.ID, p.ID, imeiFor(firstIMEI+i), categories[i])
		ids = append(ids, p.ID)
	}
	n, err := f.notes.ConfirmConference(context.Background(), n.ID, testActor, ids)
	require.NoError(t, err)
	require.Equal(t, string(model.StatusFullConference), n.Status)
	return n
}

// pending returns the undelivered hand-offs of the fixture's outbox.
func (f *fixture) pending(t *testing.T) []model.OutboxMessage {
	t.Helper()
	msgs, err := f.repo.Pending(context.Background(), 100)
	require.NoError(t, err)
	return msgs
}

func (f *fixture) stored(t *testing.T, id string) *model.IncomingNote {
	t.Helper()
	n, err := f.repo.Get(context.Background(), id)
	require.NoError(t, err)
	return n
}

func requireKind(t *testing.T, err error, kind error) *DomainError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	return de
}
