package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the note engine. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicateIMEI     = errors.New("duplicate imei")
	ErrBusinessRule      = errors.New("business rule violation")
	ErrDivergence        = errors.New("divergence detected")
	ErrNotFound          = errors.New("not found")
)

// DomainError carries the kind of failure plus the note, line and field it
// concerns, so the HTTP layer can point the caller at the offending input.
type DomainError struct {
	Kind    error
	NoteID  string
	LineID  string
	Field   string
	Message string
}

func (e *DomainError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("%s: %s (nota %s, linha %s)", e.Kind, e.Message, e.NoteID, e.LineID)
	}
	if e.NoteID != "" {
		return fmt.Sprintf("%s: %s (nota %s)", e.Kind, e.Message, e.NoteID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Kind }

func newDomainError(kind error, noteID, lineID, field, format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    kind,
		NoteID:  noteID,
		LineID:  lineID,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func validationErr(noteID, lineID, field, format string, args ...any) error {
	return newDomainError(ErrValidation, noteID, lineID, field, format, args...)
}

func transitionErr(noteID, lineID, format string, args ...any) error {
	return newDomainError(ErrInvalidTransition, noteID, lineID, "", format, args...)
}

func businessErr(noteID, lineID, field, format string, args ...any) error {
	return newDomainError(ErrBusinessRule, noteID, lineID, field, format, args...)
}

func duplicateErr(noteID, lineID, imei, location string) error {
	return newDomainError(ErrDuplicateIMEI, noteID, lineID, "imei", "IMEI %s já registrado em %s", imei, location)
}

func divergenceErr(noteID string) error {
	return newDomainError(ErrDivergence, noteID, "", "", "nota com divergência: quantidade conferida maior que cadastrada")
}

func notFoundErr(noteID string) error {
	return newDomainError(ErrNotFound, noteID, "", "", "nota não encontrada")
}
