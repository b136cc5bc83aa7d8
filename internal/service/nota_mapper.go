package service

import (
	"time"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
)

func noteToResponse(n *model.IncomingNote) *dto.NoteResponse {
	resp := &dto.NoteResponse{
		ID:              n.ID,
		Supplier:        n.Supplier,
		EntryDate:       n.EntryDate.Format("2006-01-02"),
		Responsible:     n.Responsible,
		PaymentType:     string(n.PaymentType),
		PaymentMethod:   string(n.PaymentMethod),
		CurrentActuator: string(n.CurrentActuator),
		Status:          string(n.Status),
		QtyInformed:     n.QtyInformed,
		QtyCadastrated:  n.QtyCadastrated,
		QtyConferred:    n.QtyConferred,
		AmountInformed:  n.AmountInformed,
		AmountPaid:      n.AmountPaid,
		CreditedAmount:  n.CreditedAmount,
		TotalCost:       n.TotalCost(),
		Urgent:          n.Urgent,
		Notes:           n.Notes,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
		Products:        make([]dto.ProductLineResponse, 0, len(n.Products)),
	}
	if n.MigratedAt != nil {
		s := n.MigratedAt.Format(time.RFC3339)
		resp.MigratedAt = &s
	}
	for i := range n.Products {
		resp.Products = append(resp.Products, lineToResponse(&n.Products[i]))
	}
	resp.Timeline = timelineToResponse(n.Timeline)
	return resp
}

func lineToResponse(l *model.ProductLine) dto.ProductLineResponse {
	r := dto.ProductLineResponse{
		ID:                l.ID,
		ParentLineID:      l.ParentLineID,
		ProductType:       string(l.ProductType),
		Brand:             l.Brand,
		Model:             l.Model,
		IMEI:              l.IMEI,
		Color:             l.Color,
		BatteryHealth:     l.BatteryHealth,
		Quantity:          l.Quantity,
		UnitCost:          l.UnitCost,
		TotalCost:         l.TotalCost,
		InspectionStatus:  string(l.InspectionStatus),
		DuplicateIMEI:     l.DuplicateIMEI,
		DuplicateLocation: l.DuplicateLocation,
	}
	if l.Category != nil {
		c := string(*l.Category)
		r.Category = &c
	}
	return r
}

// timelineToResponse lists events newest first.
func timelineToResponse(events []model.TimelineEvent) []dto.TimelineEventResponse {
	out := make([]dto.TimelineEventResponse, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		out = append(out, dto.TimelineEventResponse{
			ID:             e.ID.String(),
			Timestamp:      e.Timestamp.Format(time.RFC3339Nano),
			Actor:          e.Actor,
			Action:         e.Action,
			PreviousStatus: string(e.PreviousStatus),
			NewStatus:      string(e.NewStatus),
			Details:        e.Details,
		})
	}
	return out
}

func creditNoteToResponse(cn *model.SupplierCreditNote) *dto.CreditNoteResponse {
	return &dto.CreditNoteResponse{
		ID:           cn.ID.String(),
		Supplier:     cn.Supplier,
		Amount:       cn.Amount,
		OriginNoteID: cn.OriginNoteID,
		IssuedAt:     cn.IssuedAt.Format(time.RFC3339),
	}
}
