package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError covers both transport failures (StatusCode 0) and non-2xx answers.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsStatus reports whether err is an APIError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// Message turns any error from the client stack into something fit for an alert dialog.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Timeout {
			return timeoutMessage
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.StatusCode == 0 {
			return "Network error. Please check your connection."
		}
		return fallbackMessage
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return fmt.Sprintf("Invalid or missing fields: %s", strings.Join(fields, ", "))
	}

	return err.Error()
}
