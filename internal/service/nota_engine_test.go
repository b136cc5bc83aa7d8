package service

import (
	"context"
	"testing"
	"time"

	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// divergentNote counts more conferred units than cadastrated ones, which no
// public operation produces.
func divergentNote(id string) *model.IncomingNote {
	return &model.IncomingNote{
		ID:              id,
		Supplier:        "Distribuidora Alfa",
		PaymentType:     model.PaymentPost,
		PaymentMethod:   model.PaymentCash,
		Status:          model.StatusFullConference,
		CurrentActuator: model.ActuatorStock,
		Products: []model.ProductLine{
			{
				ID:               "PROD-" + id + "-001",
				ProductType:      model.ProductAccessory,
				Brand:            "Baseus",
				Model:            "Cabo USB-C",
				Quantity:         3,
				UnitCost:         decimal.NewFromInt(10),
				InspectionStatus: model.InspectionInspected,
			},
			{
				ID:               "PROD-" + id + "-002",
				ProductType:      model.ProductAccessory,
				Brand:            "Baseus",
				Model:            "Cabo USB-C",
				Quantity:         -2,
				UnitCost:         decimal.NewFromInt(10),
				InspectionStatus: model.InspectionPending,
			},
		},
	}
}

func TestCommit_DivergenciaGravaNotaEDescartaEntregas(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	engine := noteEngine{repo: repo, now: func() time.Time { return at }}
	ctx := context.Background()
	n := divergentNote("NE-2026-00077")

	msg, err := newOutboxMessage(model.HandoffGreenUnits, n.ID, greenUnitsHandoff{NoteID: n.ID}, at)
	require.NoError(t, err)
	err = engine.commit(ctx, n, change{
		actor:   testActor,
		action:  model.ActionTriageCompleted,
		prev:    model.StatusFullConference,
		payment: &model.NotePayment{NoteID: n.ID, Amount: decimal.NewFromInt(5)},
		outbox:  []model.OutboxMessage{msg},
	})
	de := requireKind(t, err, ErrDivergence)
	assert.Equal(t, n.ID, de.NoteID)

	stored, err := repo.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithDivergence, stored.Status)
	assert.Equal(t, 1, stored.QtyCadastrated)
	assert.Equal(t, 3, stored.QtyConferred)
	require.Len(t, stored.Timeline, 1)
	ev := stored.Timeline[0]
	assert.Equal(t, model.ActionDivergenceDetected, ev.Action)
	assert.Equal(t, model.StatusFullConference, ev.PreviousStatus)
	assert.Equal(t, model.StatusWithDivergence, ev.NewStatus)
	assert.Contains(t, ev.Details, "conferido 3 > cadastrado 1")
	assert.Contains(t, ev.Details, model.ActionTriageCompleted)
	assert.True(t, at.Equal(ev.Timestamp))

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	payments, err := repo.ListPayments(ctx, n.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCommit_SemDivergenciaGravaEventoEEntregas(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	engine := noteEngine{repo: repo, now: time.Now}
	ctx := context.Background()
	n := divergentNote("NE-2026-00078")
	n.Products = n.Products[:1]

	msg, err := newOutboxMessage(model.HandoffGreenUnits, n.ID, greenUnitsHandoff{NoteID: n.ID}, time.Now())
	require.NoError(t, err)
	n.Status = model.StatusFinalized
	err = engine.commit(ctx, n, change{
		actor:  testActor,
		action: model.ActionTriageCompleted,
		prev:   model.StatusFullConference,
		outbox: []model.OutboxMessage{msg},
	})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinalized, stored.Status)
	require.Len(t, stored.Timeline, 1)
	assert.Equal(t, model.ActionTriageCompleted, stored.Timeline[0].Action)
	assert.True(t, decimal.NewFromInt(30).Equal(stored.TotalCost()))

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, n.ID, pending[0].NoteID)
}
