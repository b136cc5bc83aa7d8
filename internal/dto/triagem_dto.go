package dto

import (
	"github.com/shopspring/decimal"
)

// FinanceUnit is a green unit handed to finance as sellable-and-available.
type FinanceUnit struct {
	ProductID string          `json:"product_id"`
	IMEI      *string         `json:"imei"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type RepairUnit struct {
	ProductID    string  `json:"product_id"`
	IMEI         *string `json:"imei"`
	DefectReason string  `json:"defect_reason"`
}

// RepairBatch is the payload sent to the assistance department.
type RepairBatch struct {
	BatchID      string       `json:"batch_id"`
	OriginNoteID string       `json:"origin_note_id"`
	Units        []RepairUnit `json:"units"`
}

// CreditUnit is a yellow unit routed back to the supplier for credit.
type CreditUnit struct {
	ProductID    string          `json:"product_id"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	DefectReason string          `json:"defect_reason"`
}

type CreditNoteResponse struct {
	ID           string          `json:"id"`
	Supplier     string          `json:"supplier"`
	Amount       decimal.Decimal `json:"amount"`
	OriginNoteID string          `json:"origin_note_id"`
	IssuedAt     string          `json:"issued_at"`
}

type TriageResult struct {
	Note        NoteResponse        `json:"note"`
	GreenUnits  []FinanceUnit       `json:"green_units"`
	RepairBatch *RepairBatch        `json:"repair_batch,omitempty"`
	CreditNote  *CreditNoteResponse `json:"credit_note,omitempty"`
}

// ─── Department queries ──────────────────────────────────────────────────────

type StockFilter struct {
	Destination string `form:"destination"`
	NoteID      string `form:"note_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type StockUnitResponse struct {
	SourceLineID  string          `json:"source_line_id"`
	SourceNoteID  string          `json:"source_note_id"`
	Destination   string          `json:"destination"`
	IMEI          *string         `json:"imei"`
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	Color         *string         `json:"color"`
	Category      string          `json:"category"`
	BatteryHealth int             `json:"battery_health"`
	Quantity      int             `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReceivedAt    string          `json:"received_at"`
}

type StockListResponse struct {
	Data  []StockUnitResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
