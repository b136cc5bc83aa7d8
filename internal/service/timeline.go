package service

import (
	"time"

	"notaentrada/internal/model"

	"github.com/google/uuid"
)

// appendEvent records one audit entry. Seq continues the stored sequence, so
// the note must have been loaded with its full timeline.
func appendEvent(n *model.IncomingNote, at time.Time, actor, action string, prev model.NoteStatus, details string) {
	n.Timeline = append(n.Timeline, model.TimelineEvent{
		ID:             uuid.New(),
		NoteID:         n.ID,
		Seq:            len(n.Timeline) + 1,
		Timestamp:      at,
		Actor:          actor,
		Action:         action,
		PreviousStatus: prev,
		NewStatus:      n.Status,
		Details:        details,
	})
}
