package service

import (
	"context"
	"testing"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeHandoffs(t *testing.T, repo *repository.MemoryNoteRepository, noteID string, msgs ...model.OutboxMessage) {
	t.Helper()
	err := repo.Apply(context.Background(), repository.NoteChange{
		Note:   &model.IncomingNote{ID: noteID, Status: model.StatusFinalized},
		Outbox: msgs,
	})
	require.NoError(t, err)
}

func handoff(t *testing.T, kind, noteID string, payload any) model.OutboxMessage {
	t.Helper()
	m, err := newOutboxMessage(kind, noteID, payload, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

func TestOutboxRelay_FalhaBloqueiaSoANota(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	finance := newFakeFinance()
	repair := &fakeRepair{err: errCollaboratorDown}
	relay := NewOutboxRelay(repo, finance, repair)
	ctx := context.Background()

	storeHandoffs(t, repo, "NE-2026-00001",
		handoff(t, model.HandoffRepairBatch, "NE-2026-00001", dto.RepairBatch{BatchID: repairBatchID("NE-2026-00001"), OriginNoteID: "NE-2026-00001"}),
		handoff(t, model.HandoffCreditNote, "NE-2026-00001", model.SupplierCreditNote{
			ID:           creditNoteID("NE-2026-00001"),
			Supplier:     "Distribuidora Alfa",
			Amount:       decimal.RequireFromString("750.00"),
			OriginNoteID: "NE-2026-00001",
		}),
	)
	storeHandoffs(t, repo, "NE-2026-00002",
		handoff(t, model.HandoffGreenUnits, "NE-2026-00002", greenUnitsHandoff{
			NoteID: "NE-2026-00002",
			Units:  []dto.FinanceUnit{{ProductID: "PROD-NE-2026-00002-001", TotalCost: decimal.NewFromInt(40)}},
		}),
	)

	sent, err := relay.Flush(ctx)
	require.ErrorIs(t, err, errCollaboratorDown)
	assert.Equal(t, 1, sent)
	require.Len(t, finance.green["NE-2026-00002"], 1)
	assert.Empty(t, finance.creditNotes, "o crédito espera o lote da mesma nota")

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.HandoffRepairBatch, pending[0].Kind)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, model.HandoffCreditNote, pending[1].Kind)
	assert.Zero(t, pending[1].Attempts)

	repair.err = nil
	sent, err = relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, repair.batches, 1)
	require.Len(t, finance.creditNotes, 1)
	cn := finance.creditNotes[0]
	assert.Equal(t, creditNoteID("NE-2026-00001"), cn.ID)
	assert.True(t, decimal.RequireFromString("750").Equal(cn.Amount))
}

func TestOutboxRelay_TipoDesconhecido(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	finance := newFakeFinance()
	relay := NewOutboxRelay(repo, finance, &fakeRepair{})
	ctx := context.Background()

	storeHandoffs(t, repo, "NE-2026-00003", model.OutboxMessage{Kind: "fax", Payload: "{}"})
	storeHandoffs(t, repo, "NE-2026-00004",
		handoff(t, model.HandoffGreenUnits, "NE-2026-00004", greenUnitsHandoff{NoteID: "NE-2026-00004"}),
	)

	sent, err := relay.Flush(ctx)
	assert.ErrorContains(t, err, "desconhecido")
	assert.Equal(t, 1, sent)

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "NE-2026-00003", pending[0].NoteID)
	assert.Contains(t, pending[0].LastError, "fax")
}

func TestOutboxRelay_RunParaComContexto(t *testing.T) {
	repo := repository.NewMemoryNoteRepository()
	finance := newFakeFinance()
	relay := NewOutboxRelay(repo, finance, &fakeRepair{})
	storeHandoffs(t, repo, "NE-2026-00005",
		handoff(t, model.HandoffGreenUnits, "NE-2026-00005", greenUnitsHandoff{
			NoteID: "NE-2026-00005",
			Units:  []dto.FinanceUnit{{ProductID: "PROD-NE-2026-00005-001", TotalCost: decimal.NewFromInt(10)}},
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pending, err := repo.Pending(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run não terminou após o cancelamento")
	}
	assert.Len(t, finance.green["NE-2026-00005"], 1)
}
