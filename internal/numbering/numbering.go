// Package numbering generates the human-readable identifiers of incoming
// notes and their product lines:
//
//	note:          NE-<year>-nnnnn
//	product line:  PROD-<noteId>-nnn
//	exploded unit: <parentLineId>-Unnn
package numbering

import (
	"context"
	"fmt"
)

// Counter hands out monotonically increasing sequence values per key.
type Counter interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Generator builds note and line IDs on top of a Counter.
type Generator struct {
	counter Counter
}

func NewGenerator(counter Counter) *Generator {
	return &Generator{counter: counter}
}

// NextNoteID returns the next note ID for the given year. Sequences restart
// every year.
func (g *Generator) NextNoteID(ctx context.Context, year int) (string, error) {
	n, err := g.counter.Next(ctx, fmt.Sprintf("note:%d", year))
	if err != nil {
		return "", fmt.Errorf("numbering: next note id: %w", err)
	}
	return fmt.Sprintf("NE-%d-%05d", year, n), nil
}

// NextLineID returns the next product line ID inside noteID.
func (g *Generator) NextLineID(ctx context.Context, noteID string) (string, error) {
	n, err := g.counter.Next(ctx, "line:"+noteID)
	if err != nil {
		return "", fmt.Errorf("numbering: next line id: %w", err)
	}
	return fmt.Sprintf("PROD-%s-%03d", noteID, n), nil
}

// UnitID is the ID of the seq-th unit exploded from parentID (1-based).
func UnitID(parentID string, seq int) string {
	return fmt.Sprintf("%s-U%03d", parentID, seq)
}
