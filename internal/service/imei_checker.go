package service

import (
	"context"
	"fmt"
	"strings"

	"notaentrada/internal/dto"
	"notaentrada/internal/model"
	"notaentrada/internal/repository"
)

const imeiLength = 15

// NormalizeIMEI keeps only the digits of raw, so "35-209900-176148-1" and
// "352099001761481" compare equal.
func NormalizeIMEI(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IMEIChecker looks for an IMEI across every other note and the stock store.
type IMEIChecker struct {
	notes repository.NoteRepository
	stock StockCollaborator
}

func NewIMEIChecker(notes repository.NoteRepository, stock StockCollaborator) *IMEIChecker {
	return &IMEIChecker{notes: notes, stock: stock}
}

// CheckUnique reports whether imei is already registered outside
// excludeNoteID. Lines of the excluded note are checked by the caller, which
// holds the in-flight copy.
func (c *IMEIChecker) CheckUnique(ctx context.Context, imei, excludeNoteID string) (dto.UniqueResult, error) {
	imei = NormalizeIMEI(imei)
	res := dto.UniqueResult{IMEI: imei}
	if imei == "" {
		return res, nil
	}

	lines, err := c.notes.FindLinesByIMEI(ctx, imei)
	if err != nil {
		return res, fmt.Errorf("buscar IMEI em notas: %w", err)
	}
	for _, l := range lines {
		if l.NoteID == excludeNoteID {
			continue
		}
		loc := fmt.Sprintf("nota %s (linha %s)", l.NoteID, l.ID)
		res.Duplicate = true
		res.ExistingLocation = &loc
		return res, nil
	}

	if c.stock != nil {
		found, err := c.stock.FindByIMEI(ctx, imei)
		if err != nil {
			return res, fmt.Errorf("buscar IMEI no estoque: %w", err)
		}
		if found {
			loc := "estoque"
			res.Duplicate = true
			res.ExistingLocation = &loc
		}
	}
	return res, nil
}

// siblingWithIMEI returns the other line of n carrying imei, if any.
func siblingWithIMEI(n *model.IncomingNote, lineID, imei string) *model.ProductLine {
	for i := range n.Products {
		l := &n.Products[i]
		if l.ID == lineID || l.IMEI == nil {
			continue
		}
		if *l.IMEI == imei {
			return l
		}
	}
	return nil
}

// lookupIMEI combines the in-note check with CheckUnique.
func (c *IMEIChecker) lookupIMEI(ctx context.Context, n *model.IncomingNote, lineID, imei string) (dto.UniqueResult, error) {
	if other := siblingWithIMEI(n, lineID, imei); other != nil {
		loc := fmt.Sprintf("nota %s (linha %s)", n.ID, other.ID)
		return dto.UniqueResult{IMEI: imei, Duplicate: true, ExistingLocation: &loc}, nil
	}
	return c.CheckUnique(ctx, imei, n.ID)
}
