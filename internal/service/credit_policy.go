package service

import (
	"fmt"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
)

// CreditNotePolicy decides whether a triage issues a supplier credit note for
// the yellow units routed to credit. When it declines, those units join the
// repair batch.
type CreditNotePolicy interface {
	Name() string
	ShouldIssue(note *model.IncomingNote, units []dto.CreditUnit) bool
}

type noCreditPolicy struct{}

// NoCreditPolicy never issues credit notes.
func NoCreditPolicy() CreditNotePolicy { return noCreditPolicy{} }

func (noCreditPolicy) Name() string { return "none" }

func (noCreditPolicy) ShouldIssue(*model.IncomingNote, []dto.CreditUnit) bool { return false }

type creditRoutedUnitsPolicy struct{}

// CreditRoutedUnitsPolicy issues a credit note whenever at least one unit was
// routed to credit.
func CreditRoutedUnitsPolicy() CreditNotePolicy { return creditRoutedUnitsPolicy{} }

func (creditRoutedUnitsPolicy) Name() string { return "routed_units" }

func (creditRoutedUnitsPolicy) ShouldIssue(_ *model.IncomingNote, units []dto.CreditUnit) bool {
	return len(units) > 0
}

// CreditPolicyByName resolves the CREDIT_NOTE_POLICY setting.
func CreditPolicyByName(name string) (CreditNotePolicy, error) {
	switch name {
	case "", "none":
		return NoCreditPolicy(), nil
	case "routed_units":
		return CreditRoutedUnitsPolicy(), nil
	}
	return nil, fmt.Errorf("política de nota de crédito desconhecida: %q", name)
}
