// Package validation checks the shape of inbound advertisement payloads before
// they reach the store.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"adv-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single rejected field, e.g. {"field":"title","error":"is required"}.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is returned for any payload that cannot be turned into an advertisement.
type Error struct {
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Error)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name rather than the Go one
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Struct runs tag based validation on any struct. It is shared with the
// config loader.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// DecodeCreateAdvertisement reads a JSON body and returns the normalized
// advertisement it describes.
func DecodeCreateAdvertisement(body io.Reader) (*domain.Advertisement, error) {
	var req domain.CreateAdvertisementRequest

	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	// the body must hold exactly one JSON value
	if _, err := dec.Token(); err != io.EOF {
		return nil, &Error{Message: "request body must contain a single JSON object"}
	}

	return ValidateCreateAdvertisement(&req)
}

// ValidateCreateAdvertisement checks that title and description are present
// and that title fits the column.
func ValidateCreateAdvertisement(req *domain.CreateAdvertisementRequest) (*domain.Advertisement, error) {
	if req == nil {
		return nil, &Error{Message: "request body is required"}
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, &Error{Message: "validation failed", Fields: fieldErrors(verrs)}
		}
		return nil, &Error{Message: err.Error()}
	}

	return &domain.Advertisement{
		Title:       *req.Title,
		Description: *req.Description,
	}, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.Is(err, io.EOF):
		return &Error{Message: "request body is required"}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &Error{Message: "request body must be a JSON object"}
		}
		return &Error{
			Message: "validation failed",
			Fields:  []FieldError{{Field: typeErr.Field, Error: "must be a string"}},
		}
	case errors.As(err, &syntaxErr):
		return &Error{Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}
	default:
		return &Error{Message: "invalid request payload"}
	}
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
		default:
			msg = fe.Tag()
		}
		fields = append(fields, FieldError{Field: fe.Field(), Error: msg})
	}
	return fields
}
