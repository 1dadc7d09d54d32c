// internal/server/handlers/response.go

package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"miniregion/internal/domain/restaurant"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses. Server errors are logged with their cause;
// the client only sees message.
func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string, err error) {
	if err != nil && code >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Int("status", code).
			Str("path", r.URL.Path).
			Msg(message)
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithValidationError writes a 400 naming the offending field
func respondWithValidationError(w http.ResponseWriter, verr *restaurant.ValidationError) {
	respondWithJSON(w, http.StatusBadRequest, map[string]string{
		"error": verr.Message,
		"field": verr.Field,
	})
}

// newValidator returns a validator reporting fields by their json name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// toValidationError converts the first validator failure into a
// ValidationError. Other errors are returned unchanged.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	field := fe.Field()

	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "max":
		msg = field + " must be at most " + fe.Param() + " characters"
	case "gte":
		msg = field + " must be >= " + fe.Param()
	case "lte":
		msg = field + " must be <= " + fe.Param()
	default:
		msg = field + " is invalid"
	}

	return &restaurant.ValidationError{Field: field, Message: msg}
}
