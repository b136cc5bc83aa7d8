package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"notaentrada/internal/apierror"
	"notaentrada/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so tags like min=0 and gt=0
	// work instead of panicking with "Bad field type decimal.Decimal".
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	// Report fields by their JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds the JSON body and runs the validator tags.
// On failure it writes the response and returns false; the caller returns
// without writing anything else.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps engine errors to HTTP statuses. Anything that is not a
// DomainError is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var de *service.DomainError
	if !errors.As(err, &de) {
		_ = c.Error(err)
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
		return
	}

	status := http.StatusUnprocessableEntity
	kind := "validation"
	switch {
	case errors.Is(de.Kind, service.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(de.Kind, service.ErrInvalidTransition):
		status, kind = http.StatusConflict, "invalid_transition"
	case errors.Is(de.Kind, service.ErrDuplicateIMEI):
		status, kind = http.StatusConflict, "duplicate_imei"
	case errors.Is(de.Kind, service.ErrDivergence):
		status, kind = http.StatusConflict, "divergence"
	case errors.Is(de.Kind, service.ErrBusinessRule):
		status, kind = http.StatusUnprocessableEntity, "business_rule"
	}
	c.JSON(status, &apierror.APIError{
		Detail: de.Message,
		Kind:   kind,
		NoteID: de.NoteID,
		LineID: de.LineID,
		Field:  de.Field,
	})
}
