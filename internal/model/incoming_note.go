package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType decides which department owns the note first.
type PaymentType string

const (
	PaymentPost        PaymentType = "PaymentPost"
	PaymentPartial     PaymentType = "PaymentPartial"
	PaymentFullAdvance PaymentType = "PaymentFullAdvance"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentPost, PaymentPartial, PaymentFullAdvance:
		return true
	}
	return false
}

// InitialActuator is the department that acts first on a freshly created note.
// Post-payment notes are inspected before any money moves; the other two
// require a payment before stock registers anything.
func (p PaymentType) InitialActuator() Actuator {
	switch p {
	case PaymentPost:
		return ActuatorStock
	case PaymentPartial, PaymentFullAdvance:
		return ActuatorFinance
	}
	return ""
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentPix  PaymentMethod = "Pix"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentPix:
		return true
	}
	return false
}

// Actuator is the department that owns the next action on a note.
type Actuator string

const (
	ActuatorStock   Actuator = "Stock"
	ActuatorFinance Actuator = "Finance"
	ActuatorClosed  Actuator = "Closed"
)

func (a Actuator) Valid() bool {
	switch a {
	case ActuatorStock, ActuatorFinance, ActuatorClosed:
		return true
	}
	return false
}

// NoteStatus is the lifecycle state of an incoming note.
// Open → {AwaitingFinance | AwaitingStock} → PartialConference → FullConference → Finalized,
// with WithDivergence reachable from any state when reconciliation breaks.
type NoteStatus string

const (
	StatusOpen              NoteStatus = "Open"
	StatusAwaitingFinance   NoteStatus = "AwaitingFinance"
	StatusAwaitingStock     NoteStatus = "AwaitingStock"
	StatusPartialConference NoteStatus = "PartialConference"
	StatusFullConference    NoteStatus = "FullConference"
	StatusFinalized         NoteStatus = "Finalized"
	StatusWithDivergence    NoteStatus = "WithDivergence"
)

func (s NoteStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAwaitingFinance, StatusAwaitingStock, StatusPartialConference,
		StatusFullConference, StatusFinalized, StatusWithDivergence:
		return true
	}
	return false
}

// IncomingNote (Nota de Entrada) tracks a supplier purchase from registration
// until its units are sellable or sent to repair.
// QtyCadastrated and QtyConferred are derived from Products and must only be
// written by the reconciliation step.
type IncomingNote struct {
	ID          string    `gorm:"type:varchar(32);primaryKey"`
	Supplier    string    `gorm:"not null;index"`
	EntryDate   time.Time `gorm:"type:date;not null"`
	Responsible string    `gorm:"not null"`

	PaymentType    PaymentType   `gorm:"type:varchar(24);not null"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(8);not null"`
	PixKey         *string
	PixKeyType     *string `gorm:"type:varchar(16)"`
	PixBeneficiary *string

	CurrentActuator Actuator   `gorm:"type:varchar(12);not null;index"`
	Status          NoteStatus `gorm:"type:varchar(24);not null;index"`

	QtyInformed    int `gorm:"not null;default:0"`
	QtyCadastrated int `gorm:"not null;default:0"`
	QtyConferred   int `gorm:"not null;default:0"`

	// AmountInformed is the note total declared by the supplier; AmountPaid is
	// the running sum of NotePayment rows.
	AmountInformed decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// CreditedAmount is the supplier credit issued at triage; it reduces what
	// finance still owes on settlement.
	CreditedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Urgent     bool `gorm:"not null;default:false"`
	Notes      *string
	MigratedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Products []ProductLine   `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE"`
	Timeline []TimelineEvent `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE"`
}

func (IncomingNote) TableName() string { return "notas_entrada" }

// LineIndex returns the position of lineID in Products, or -1.
func (n *IncomingNote) LineIndex(lineID string) int {
	for i := range n.Products {
		if n.Products[i].ID == lineID {
			return i
		}
	}
	return -1
}

// TotalCost sums TotalCost over every product line.
func (n *IncomingNote) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range n.Products {
		total = total.Add(n.Products[i].TotalCost)
	}
	return total
}

// Outstanding is what the store still owes the supplier.
func (n *IncomingNote) Outstanding() decimal.Decimal {
	return n.TotalCost().Sub(n.CreditedAmount).Sub(n.AmountPaid)
}

// Clone returns a deep copy so callers can compute on it without touching
// the stored record.
func (n *IncomingNote) Clone() *IncomingNote {
	c := *n
	c.PixKey = cloneString(n.PixKey)
	c.PixKeyType = cloneString(n.PixKeyType)
	c.PixBeneficiary = cloneString(n.PixBeneficiary)
	c.Notes = cloneString(n.Notes)
	if n.MigratedAt != nil {
		t := *n.MigratedAt
		c.MigratedAt = &t
	}
	c.Products = make([]ProductLine, len(n.Products))
	for i := range n.Products {
		c.Products[i] = n.Products[i].Clone()
	}
	c.Timeline = append([]TimelineEvent(nil), n.Timeline...)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
