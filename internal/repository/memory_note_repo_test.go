package repository

import (
	"context"
	"testing"
	"time"

	"notaentrada/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNote(id string, urgent bool, created time.Time) *model.IncomingNote {
	imei := "352099001761481"
	return &model.IncomingNote{
		ID:              id,
		Supplier:        "Distribuidora Alfa",
		PaymentType:     model.PaymentPost,
		PaymentMethod:   model.PaymentCash,
		CurrentActuator: model.ActuatorStock,
		Status:          model.StatusAwaitingStock,
		Urgent:          urgent,
		CreatedAt:       created,
		Products: []model.ProductLine{{
			ID:          "PROD-" + id + "-001",
			ProductType: model.ProductDevice,
			Brand:       "Apple",
			Model:       "iPhone 12",
			IMEI:        &imei,
			Quantity:    1,
			UnitCost:    decimal.NewFromInt(900),
			TotalCost:   decimal.NewFromInt(900),
		}},
		Timeline: []model.TimelineEvent{{ID: uuid.New(), Seq: 1, Action: model.ActionCreated, Details: "criada"}},
	}
}

func TestMemoryRepo_GetDevolveCopia(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleNote("NE-2026-00001", false, time.Now())))

	n, err := repo.Get(ctx, "NE-2026-00001")
	require.NoError(t, err)
	*n.Products[0].IMEI = "000000000000000"
	n.Products[0].Quantity = 7

	again, err := repo.Get(ctx, "NE-2026-00001")
	require.NoError(t, err)
	assert.Equal(t, "352099001761481", *again.Products[0].IMEI)
	assert.Equal(t, 1, again.Products[0].Quantity)
	assert.Equal(t, "NE-2026-00001", again.Products[0].NoteID)

	_, err = repo.Get(ctx, "NE-2026-00002")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_TimelineSomenteAcrescenta(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleNote("NE-2026-00001", false, time.Now())))

	n, err := repo.Get(ctx, "NE-2026-00001")
	require.NoError(t, err)
	n.Timeline[0].Details = "reescrito"
	n.Timeline = append(n.Timeline, model.TimelineEvent{ID: uuid.New(), Seq: 2, Action: model.ActionDispatched})
	require.NoError(t, repo.Save(ctx, n))

	stored, err := repo.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, stored.Timeline, 2)
	assert.Equal(t, "criada", stored.Timeline[0].Details)
	assert.Equal(t, model.ActionDispatched, stored.Timeline[1].Action)

	n.Timeline = nil
	require.NoError(t, repo.Save(ctx, n))
	stored, err = repo.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Timeline, 2)
}

func TestMemoryRepo_ApplyRegistraPagamento(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	n := sampleNote("NE-2026-00001", false, time.Now())
	p := &model.NotePayment{ID: uuid.New(), NoteID: n.ID, Amount: decimal.NewFromInt(100), Method: model.PaymentPix}

	require.NoError(t, repo.Apply(ctx, NoteChange{Note: n, Payment: p}))
	payments, err := repo.ListPayments(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentPix, payments[0].Method)
}

func TestMemoryRepo_ListFiltraEOrdena(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleNote("NE-2026-00001", false, base)))
	require.NoError(t, repo.Save(ctx, sampleNote("NE-2026-00002", false, base.Add(time.Hour))))
	urgent := sampleNote("NE-2026-00003", true, base)
	urgent.Supplier = "Importadora Beta"
	urgent.CurrentActuator = model.ActuatorFinance
	require.NoError(t, repo.Save(ctx, urgent))

	all, total, err := repo.List(ctx, NoteFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"NE-2026-00003", "NE-2026-00002", "NE-2026-00001"}, []string{all[0].ID, all[1].ID, all[2].ID})

	beta, _, err := repo.List(ctx, NoteFilter{Supplier: "beta"})
	require.NoError(t, err)
	require.Len(t, beta, 1)
	assert.Equal(t, "NE-2026-00003", beta[0].ID)

	stock, total, err := repo.List(ctx, NoteFilter{Actuator: model.ActuatorStock, Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, stock, 1)
	assert.Equal(t, "NE-2026-00001", stock[0].ID)

	notUrgent := false
	list, _, err := repo.List(ctx, NoteFilter{Urgent: &notUrgent, Page: 5})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryRepo_FindLinesByIMEI(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleNote("NE-2026-00001", false, time.Now())))

	lines, err := repo.FindLinesByIMEI(ctx, "352099001761481")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "NE-2026-00001", lines[0].NoteID)

	lines, err = repo.FindLinesByIMEI(ctx, "111111111111111")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMemoryRepo_OutboxGravadoComANota(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	n := sampleNote("NE-2026-00009", false, at)

	require.NoError(t, repo.Apply(ctx, NoteChange{Note: n, Outbox: []model.OutboxMessage{
		{Kind: model.HandoffGreenUnits, Payload: `{"note_id":"NE-2026-00009"}`, CreatedAt: at},
		{Kind: model.HandoffRepairBatch, Payload: `{}`, CreatedAt: at},
	}}))

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, uint(1), pending[0].ID)
	assert.Equal(t, "NE-2026-00009", pending[0].NoteID)
	assert.Equal(t, model.HandoffRepairBatch, pending[1].Kind)

	limited, err := repo.Pending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.MarkFailed(ctx, 2, "fila indisponível"))
	require.NoError(t, repo.MarkSent(ctx, 1, at.Add(time.Minute)))
	pending, err = repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, uint(2), pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "fila indisponível", pending[0].LastError)

	assert.ErrorIs(t, repo.MarkSent(ctx, 7, at), ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, 0, "x"), ErrNotFound)
}
