package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/rs/zerolog/log"
)

// noteEngine holds what every note operation shares: loading a working copy,
// guarding the current state and committing the result with its event.
type noteEngine struct {
	repo repository.NoteRepository
	now  func() time.Time
}

// change describes one committed transition.
type change struct {
	actor   string
	action  string
	details string
	prev    model.NoteStatus
	payment *model.NotePayment
	outbox  []model.OutboxMessage
}

func (e *noteEngine) load(ctx context.Context, id string) (*model.IncomingNote, error) {
	n, err := e.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundErr(id)
	}
	if err != nil {
		return nil, fmt.Errorf("carregar nota %s: %w", id, err)
	}
	return n, nil
}

// commit reconciles the working copy and persists it with exactly one event.
// A broken reconciliation persists the note as WithDivergence instead, drops
// the change's outbox and returns ErrDivergence.
func (e *noteEngine) commit(ctx context.Context, n *model.IncomingNote, c change) error {
	at := e.now()
	if reconcile(n) {
		n.Status = model.StatusWithDivergence
		appendEvent(n, at, c.actor, model.ActionDivergenceDetected, c.prev,
			fmt.Sprintf("conferido %d > cadastrado %d durante %s", n.QtyConferred, n.QtyCadastrated, c.action))
		if err := e.repo.Save(ctx, n); err != nil {
			return fmt.Errorf("salvar divergência da nota %s: %w", n.ID, err)
		}
		log.Warn().
			Str("note_id", n.ID).
			Int("qty_cadastrated", n.QtyCadastrated).
			Int("qty_conferred", n.QtyConferred).
			Msg("note: divergence detected")
		return divergenceErr(n.ID)
	}

	appendEvent(n, at, c.actor, c.action, c.prev, c.details)
	if err := e.repo.Apply(ctx, repository.NoteChange{Note: n, Payment: c.payment, Outbox: c.outbox}); err != nil {
		return fmt.Errorf("salvar nota %s: %w", n.ID, err)
	}
	log.Info().
		Str("note_id", n.ID).
		Str("action", c.action).
		Str("from", string(c.prev)).
		Str("to", string(n.Status)).
		Str("actuator", string(n.CurrentActuator)).
		Str("actor", c.actor).
		Msg("note: transition applied")
	return nil
}

// guardStockStage allows the stock-side operations: cadastration, explosion,
// field submission and conference.
func guardStockStage(n *model.IncomingNote) error {
	switch n.Status {
	case model.StatusOpen, model.StatusAwaitingStock, model.StatusPartialConference:
		if n.CurrentActuator != model.ActuatorStock {
			return transitionErr(n.ID, "", "nota aguardando ação do %s", actuatorLabel(n.CurrentActuator))
		}
		return nil
	case model.StatusAwaitingFinance:
		return transitionErr(n.ID, "", "nota aguardando pagamento do financeiro")
	case model.StatusFullConference:
		return transitionErr(n.ID, "", "conferência já concluída")
	case model.StatusFinalized:
		return transitionErr(n.ID, "", "nota finalizada")
	case model.StatusWithDivergence:
		return divergenceErr(n.ID)
	}
	return transitionErr(n.ID, "", "status desconhecido %q", n.Status)
}

func actuatorLabel(a model.Actuator) string {
	switch a {
	case model.ActuatorStock:
		return "estoque"
	case model.ActuatorFinance:
		return "financeiro"
	case model.ActuatorClosed:
		return "ninguém (nota encerrada)"
	}
	return string(a)
}
