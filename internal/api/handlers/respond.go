package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"spendwise-be/internal/apperrors"
)

// envelope is the JSON shape of every response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as their json tag so error messages match the wire.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func respondSuccess(w http.ResponseWriter, code int, message string, data any) {
	respondJSON(w, code, envelope{Status: "success", Message: message, Data: data})
}

// respondError maps a domain error to its status code and envelope. Anything
// outside the known taxonomy becomes a generic 500.
func respondError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusBadRequest, envelope{
			Status:  "error",
			Message: "Validation failed",
			Error:   validationErr.Fields,
		})
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrAccountDisabled):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, apperrors.ErrSelfDelete):
		status, message = http.StatusBadRequest, err.Error()
	default:
		log.Error().Err(err).Msg("Unexpected error")
	}

	respondJSON(w, status, envelope{Status: "error", Error: message})
}

// decodeAndValidate decodes the request body into dst and runs the validator
// tags, converting failures into field-level validation errors.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidation("body", "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields[fe.Field()] = fieldMessage(fe)
			}
			return &apperrors.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "gte":
		return "Must be at least " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}
