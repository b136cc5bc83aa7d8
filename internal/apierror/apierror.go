// Package apierror provides the error envelopes returned by the API.
// Internal details (DB errors, stack traces) never reach clients.
package apierror

// APIError is the envelope for 4xx/5xx responses. Kind, NoteID, LineID and
// Field are filled for engine errors so the client can point at the input.
type APIError struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
	NoteID string `json:"note_id,omitempty"`
	LineID string `json:"line_id,omitempty"`
	Field  string `json:"field,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps per-field binding errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}
