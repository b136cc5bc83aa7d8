package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TriageService routes the conferred units of a fully conferred note: green
// units to finance, yellow units to assistance or back to the supplier.
type TriageService interface {
	Triage(ctx context.Context, noteID, actor string, req dto.TriageRequest) (*dto.TriageResult, error)
}

type triageService struct {
	noteEngine
	relay  *OutboxRelay
	policy CreditNotePolicy
}

// NewTriageService stores the hand-offs with the finalized note and lets relay
// deliver them. A nil relay leaves delivery to whoever drains the outbox.
func NewTriageService(repo repository.NoteRepository, relay *OutboxRelay, policy CreditNotePolicy) TriageService {
	if policy == nil {
		policy = NoCreditPolicy()
	}
	return &triageService{
		noteEngine: noteEngine{repo: repo, now: time.Now},
		relay:      relay,
		policy:     policy,
	}
}

// handoffNamespace seeds the hand-off IDs, so every triage attempt of a note
// names its repair batch and credit note the same way.
var handoffNamespace = uuid.MustParse("6f1c2e0a-4b7d-5e3a-9c81-2d4f6a8b0e17")

func repairBatchID(noteID string) string {
	return uuid.NewSHA1(handoffNamespace, []byte("repair:"+noteID)).String()
}

func creditNoteID(noteID string) uuid.UUID {
	return uuid.NewSHA1(handoffNamespace, []byte("credit:"+noteID))
}

// triagePlan is the validated outcome of a decision set, computed before
// anything is written.
type triagePlan struct {
	green  []dto.FinanceUnit
	repair []dto.RepairUnit
	credit []dto.CreditUnit
}

// ── Triage ───────────────────────────────────────────────────────────────────
//   1. Validate status, IMEIs and every decision (no side effects)
//   2. Decide the credit note; without one, credit units go to repair
//   3. Persist the Finalized note, its TriageCompleted event and the
//      department hand-offs in one transaction
//   4. Ask the relay to deliver; a delivery failure stays in the outbox

func (s *triageService) Triage(ctx context.Context, noteID, actor string, req dto.TriageRequest) (*dto.TriageResult, error) {
	n, err := s.load(ctx, noteID)
	if err != nil {
		return nil, err
	}
	switch n.Status {
	case model.StatusFullConference:
	case model.StatusWithDivergence:
		return nil, divergenceErr(n.ID)
	case model.StatusFinalized:
		return nil, transitionErr(n.ID, "", "triagem já realizada")
	case model.StatusOpen, model.StatusAwaitingFinance, model.StatusAwaitingStock, model.StatusPartialConference:
		return nil, transitionErr(n.ID, "", "triagem exige conferência completa")
	default:
		return nil, transitionErr(n.ID, "", "status desconhecido %q", n.Status)
	}

	plan, err := planTriage(n, req.Decisions)
	if err != nil {
		return nil, err
	}

	at := s.now()
	var cn *model.SupplierCreditNote
	if len(plan.credit) > 0 {
		if s.policy.ShouldIssue(n, plan.credit) {
			amount := decimal.Zero
			for _, u := range plan.credit {
				amount = amount.Add(u.TotalCost)
			}
			cn = &model.SupplierCreditNote{
				ID:           creditNoteID(n.ID),
				Supplier:     n.Supplier,
				Amount:       amount,
				OriginNoteID: n.ID,
				IssuedAt:     at,
			}
		} else {
			// Without a credit note the defective units still need repair.
			for _, u := range plan.credit {
				plan.repair = append(plan.repair, dto.RepairUnit{
					ProductID:    u.ProductID,
					IMEI:         n.Products[n.LineIndex(u.ProductID)].IMEI,
					DefectReason: u.DefectReason,
				})
			}
		}
	}
	var batch *dto.RepairBatch
	if len(plan.repair) > 0 {
		batch = &dto.RepairBatch{
			BatchID:      repairBatchID(n.ID),
			OriginNoteID: n.ID,
			Units:        plan.repair,
		}
	}

	outbox, err := triageOutbox(n.ID, plan.green, batch, cn, at)
	if err != nil {
		return nil, err
	}

	prev := n.Status
	n.Status = model.StatusFinalized
	if cn != nil {
		n.CreditedAmount = cn.Amount
	}
	if n.Outstanding().IsPositive() {
		n.CurrentActuator = model.ActuatorFinance
	} else {
		n.CurrentActuator = model.ActuatorClosed
	}

	details := fmt.Sprintf("verdes=%d amarelos=%d", len(plan.green), len(plan.repair)+len(plan.credit))
	if batch != nil {
		details += fmt.Sprintf(" lote=%s", batch.BatchID)
	}
	if cn != nil {
		details += fmt.Sprintf(" crédito=R$ %s", cn.Amount.StringFixed(2))
	}
	if err := s.commit(ctx, n, change{actor: actor, action: model.ActionTriageCompleted, details: details, prev: prev, outbox: outbox}); err != nil {
		return nil, err
	}

	if s.relay != nil {
		if _, err := s.relay.Flush(ctx); err != nil {
			log.Warn().Str("note_id", n.ID).Err(err).Msg("triage: hand-off delivery deferred")
		}
	}

	res := &dto.TriageResult{
		Note:        *noteToResponse(n),
		GreenUnits:  plan.green,
		RepairBatch: batch,
	}
	if cn != nil {
		res.CreditNote = creditNoteToResponse(cn)
	}
	return res, nil
}

// triageOutbox orders the hand-offs the way the departments expect them:
// finance first, then assistance, then the credit note.
func triageOutbox(noteID string, green []dto.FinanceUnit, batch *dto.RepairBatch, cn *model.SupplierCreditNote, at time.Time) ([]model.OutboxMessage, error) {
	var out []model.OutboxMessage
	add := func(kind string, payload any) error {
		m, err := newOutboxMessage(kind, noteID, payload, at)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}
	if len(green) > 0 {
		if err := add(model.HandoffGreenUnits, greenUnitsHandoff{NoteID: noteID, Units: green}); err != nil {
			return nil, err
		}
	}
	if batch != nil {
		if err := add(model.HandoffRepairBatch, batch); err != nil {
			return nil, err
		}
	}
	if cn != nil {
		if err := add(model.HandoffCreditNote, cn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// planTriage checks the decision set against the note and splits the units
// by destination. It never mutates n.
func planTriage(n *model.IncomingNote, decisions []dto.TriageDecision) (*triagePlan, error) {
	for i := range n.Products {
		l := &n.Products[i]
		if l.IsDevice() && (l.IMEI == nil || *l.IMEI == "") {
			return nil, validationErr(n.ID, l.ID, "imei", "aparelho sem IMEI não pode ser triado")
		}
	}
	if len(decisions) == 0 {
		return nil, validationErr(n.ID, "", "decisions", "informe as decisões de triagem")
	}

	plan := &triagePlan{}
	decided := make(map[string]bool, len(decisions))
	for _, d := range decisions {
		idx := n.LineIndex(d.ProductID)
		if idx < 0 {
			return nil, validationErr(n.ID, d.ProductID, "product_id", "produto inexistente na nota")
		}
		l := &n.Products[idx]
		if !l.IsInspected() {
			return nil, validationErr(n.ID, l.ID, "product_id", "produto ainda não conferido")
		}
		if decided[l.ID] {
			return nil, validationErr(n.ID, l.ID, "product_id", "mais de uma decisão para o mesmo produto")
		}
		decided[l.ID] = true

		reason := strings.TrimSpace(d.DefectReason)
		switch d.Path {
		case "Green":
			if d.RouteToCredit {
				return nil, validationErr(n.ID, l.ID, "route_to_credit", "somente unidades amarelas podem gerar crédito")
			}
			plan.green = append(plan.green, dto.FinanceUnit{ProductID: l.ID, IMEI: l.IMEI, TotalCost: l.TotalCost})
		case "Yellow":
			if l.Category != nil && *l.Category == model.CategoryNew {
				return nil, businessErr(n.ID, l.ID, "path", "produto novo não pode ir para assistência")
			}
			if reason == "" {
				return nil, validationErr(n.ID, l.ID, "defect_reason", "motivo do defeito é obrigatório")
			}
			if d.RouteToCredit {
				plan.credit = append(plan.credit, dto.CreditUnit{ProductID: l.ID, TotalCost: l.TotalCost, DefectReason: reason})
			} else {
				plan.repair = append(plan.repair, dto.RepairUnit{ProductID: l.ID, IMEI: l.IMEI, DefectReason: reason})
			}
		default:
			return nil, validationErr(n.ID, l.ID, "path", "caminho de triagem inválido: %q", d.Path)
		}
	}

	for i := range n.Products {
		l := &n.Products[i]
		if l.IsInspected() && !decided[l.ID] {
			return nil, validationErr(n.ID, l.ID, "decisions", "produto conferido sem decisão de triagem")
		}
	}
	return plan, nil
}
