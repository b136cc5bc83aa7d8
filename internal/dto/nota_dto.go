package dto

import (
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ProductLineInput struct {
	ProductType   string          `json:"product_type"   validate:"required,oneof=Device Accessory"`
	Brand         string          `json:"brand"          validate:"required"`
	Model         string          `json:"model"          validate:"required"`
	IMEI          *string         `json:"imei"`
	Color         *string         `json:"color"`
	Category      *string         `json:"category"       validate:"omitempty,oneof=New UsedGood"`
	BatteryHealth *int            `json:"battery_health" validate:"omitempty,min=0,max=100"`
	Quantity      int             `json:"quantity"       validate:"required,min=1"`
	UnitCost      decimal.Decimal `json:"unit_cost"      validate:"min=0"`
}

type PixInput struct {
	Key         string `json:"key"          validate:"required"`
	KeyType     string `json:"key_type"     validate:"required,oneof=cpf cnpj email telefone aleatoria"`
	Beneficiary string `json:"beneficiary"  validate:"required"`
}

type CreateNoteRequest struct {
	Supplier       string             `json:"supplier"        validate:"required,min=2"`
	EntryDate      string             `json:"entry_date"      validate:"required"` // YYYY-MM-DD
	Responsible    string             `json:"responsible"     validate:"required"`
	PaymentType    string             `json:"payment_type"    validate:"required,oneof=PaymentPost PaymentPartial PaymentFullAdvance"`
	PaymentMethod  string             `json:"payment_method"  validate:"required,oneof=Cash Pix"`
	Pix            *PixInput          `json:"pix"`
	QtyInformed    int                `json:"qty_informed"    validate:"min=0"`
	AmountInformed decimal.Decimal    `json:"amount_informed" validate:"min=0"`
	Urgent         bool               `json:"urgent"`
	Notes          *string            `json:"notes"`
	Products       []ProductLineInput `json:"products"        validate:"omitempty,dive"`
}

type AddProductLinesRequest struct {
	Products []ProductLineInput `json:"products" validate:"required,min=1,dive"`
}

type RegisterPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Method *string         `json:"method" validate:"omitempty,oneof=Cash Pix"`
}

type CollapseLinesRequest struct {
	ParentLineID string `json:"parent_line_id" validate:"required"`
}

type SubmitFieldsRequest struct {
	IMEI          string `json:"imei"           validate:"required"`
	Color         string `json:"color"          validate:"required"`
	Category      string `json:"category"       validate:"required,oneof=New UsedGood"`
	BatteryHealth *int   `json:"battery_health" validate:"omitempty,min=0,max=100"`
}

type ConfirmConferenceRequest struct {
	LineIDs []string `json:"line_ids"`
}

// TriageDecision routes one conferred line. RouteToCredit sends a yellow
// unit back to the supplier for credit instead of in-house repair.
type TriageDecision struct {
	ProductID     string `json:"product_id"    validate:"required"`
	Path          string `json:"path"          validate:"required,oneof=Green Yellow"`
	DefectReason  string `json:"defect_reason"`
	RouteToCredit bool   `json:"route_to_credit"`
}

type TriageRequest struct {
	Decisions []TriageDecision `json:"decisions" validate:"required,min=1,dive"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type NoteFilter struct {
	Status   string `form:"status"`
	Actuator string `form:"actuator"`
	Supplier string `form:"supplier"`
	Urgent   *bool  `form:"urgent"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductLineResponse struct {
	ID                string          `json:"id"`
	ParentLineID      *string         `json:"parent_line_id,omitempty"`
	ProductType       string          `json:"product_type"`
	Brand             string          `json:"brand"`
	Model             string          `json:"model"`
	IMEI              *string         `json:"imei"`
	Color             *string         `json:"color"`
	Category          *string         `json:"category"`
	BatteryHealth     int             `json:"battery_health"`
	Quantity          int             `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	InspectionStatus  string          `json:"inspection_status"`
	DuplicateIMEI     bool            `json:"duplicate_imei"`
	DuplicateLocation *string         `json:"duplicate_location,omitempty"`
}

type TimelineEventResponse struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	Actor          string `json:"actor"`
	Action         string `json:"action"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Details        string `json:"details"`
}

type NoteResponse struct {
	ID              string                  `json:"id"`
	Supplier        string                  `json:"supplier"`
	EntryDate       string                  `json:"entry_date"`
	Responsible     string                  `json:"responsible"`
	PaymentType     string                  `json:"payment_type"`
	PaymentMethod   string                  `json:"payment_method"`
	CurrentActuator string                  `json:"current_actuator"`
	Status          string                  `json:"status"`
	QtyInformed     int                     `json:"qty_informed"`
	QtyCadastrated  int                     `json:"qty_cadastrated"`
	QtyConferred    int                     `json:"qty_conferred"`
	AmountInformed  decimal.Decimal         `json:"amount_informed"`
	AmountPaid      decimal.Decimal         `json:"amount_paid"`
	CreditedAmount  decimal.Decimal         `json:"credited_amount"`
	TotalCost       decimal.Decimal         `json:"total_cost"`
	Urgent          bool                    `json:"urgent"`
	Notes           *string                 `json:"notes,omitempty"`
	MigratedAt      *string                 `json:"migrated_at,omitempty"`
	Products        []ProductLineResponse   `json:"products"`
	Timeline        []TimelineEventResponse `json:"timeline,omitempty"`
	CreatedAt       string                  `json:"created_at"`
}

type NoteListResponse struct {
	Data  []NoteResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// UniqueResult is the answer of the IMEI uniqueness check.
type UniqueResult struct {
	IMEI             string  `json:"imei"`
	Duplicate        bool    `json:"duplicate"`
	ExistingLocation *string `json:"existing_location,omitempty"`
}

type SubmitFieldsResponse struct {
	Note             NoteResponse `json:"note"`
	Duplicate        bool         `json:"duplicate"`
	ExistingLocation *string      `json:"existing_location,omitempty"`
}

type MigrationResult struct {
	NoteID        string `json:"note_id"`
	NewCount      int    `json:"new_count"`
	UsedGoodCount int    `json:"used_good_count"`
	Skipped       int    `json:"skipped"`
	AlreadyDone   bool   `json:"already_done"`
}
