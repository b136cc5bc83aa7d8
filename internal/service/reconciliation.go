package service

import (
	"notaentrada/internal/model"
)

// reconcile recomputes the derived counters from the product lines and
// reports whether conferred exceeds cadastrated.
func reconcile(n *model.IncomingNote) (diverged bool) {
	cadastrated, conferred := 0, 0
	for i := range n.Products {
		l := &n.Products[i]
		l.RecomputeTotal()
		cadastrated += l.Quantity
		if l.IsInspected() {
			conferred += l.Quantity
		}
	}
	n.QtyCadastrated = cadastrated
	n.QtyConferred = conferred
	return conferred > cadastrated
}

// conferenceStatus is the stock-side status implied by the counters.
func conferenceStatus(n *model.IncomingNote) model.NoteStatus {
	switch {
	case n.QtyCadastrated > 0 && n.QtyConferred == n.QtyCadastrated:
		return model.StatusFullConference
	case n.QtyConferred > 0:
		return model.StatusPartialConference
	default:
		return model.StatusAwaitingStock
	}
}
