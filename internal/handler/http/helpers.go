package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, customer.ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrOrderNumberExists):
		return http.StatusConflict
	case errors.Is(err, order.ErrAmountOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe)
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("Field '%s' is required", field))
		case "min":
			if fe.Param() == "1" {
				details = append(details, fmt.Sprintf("Field '%s' is required", field))
				continue
			}
			details = append(details, fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param()))
		case "email":
			details = append(details, fmt.Sprintf("Field '%s' must be a valid email address", field))
		case "oneof":
			details = append(details, fmt.Sprintf("Field '%s' must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "gte":
			details = append(details, fmt.Sprintf("Field '%s' must be greater than or equal to %s", field, fe.Param()))
		case "lte":
			details = append(details, fmt.Sprintf("Field '%s' must be less than or equal to %s", field, fe.Param()))
		case "uuid":
			details = append(details, fmt.Sprintf("Field '%s' must be a valid UUID", field))
		default:
			details = append(details, fmt.Sprintf("Field '%s' is invalid", field))
		}
	}
	return details
}

// fieldPath drops the request type name from the namespace, e.g. items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// validateRequest writes a 400 response and returns false when payload is invalid.
func validateRequest(w http.ResponseWriter, validate *validator.Validate, payload interface{}) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Message: "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
		return false
	}

	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, logField string) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str(logField, idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

// OptionalString tells an absent JSON field apart from an explicit null or value.
type OptionalString struct {
	Set   bool
	Value string
}

func (s *OptionalString) UnmarshalJSON(data []byte) error {
	s.Set = true
	if string(data) == "null" {
		s.Value = ""
		return nil
	}
	return json.Unmarshal(data, &s.Value)
}

// parseDueDate accepts YYYY-MM-DD or RFC 3339 and keeps only the calendar date.
// An empty string means no due date.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("due_date %q must be YYYY-MM-DD or RFC 3339", s)
		}
	}

	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func formatDueDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
