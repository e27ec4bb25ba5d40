// Package backend holds the business rules of the sandbox API.
package backend

import (
	"errors"
	"net/http"

	"github.com/sefazor/storefront/internal/repository"
)

// Error is a failure the handlers answer with verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func badRequest(message string) *Error { return newError(http.StatusBadRequest, message) }

func forbidden(message string) *Error { return newError(http.StatusForbidden, message) }

func conflict(message string) *Error { return newError(http.StatusConflict, message) }

// lookup maps a repository miss to a 404 with message.
func lookup(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(http.StatusNotFound, message)
	}
	return err
}

// StatusOf returns the HTTP status for err, 500 for anything unexpected.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return http.StatusInternalServerError
}
