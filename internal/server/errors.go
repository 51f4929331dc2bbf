// Package server provides the HTTP REST API for the podcast planner.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/podcast-planner/internal/arxiv"
	"github.com/jonathan/podcast-planner/internal/generation"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a stored run or artifact does not exist
type ErrNotFound struct {
	What string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.ID)
}

// ErrStoreUnavailable indicates a route needs persistence that is not configured
type ErrStoreUnavailable struct{}

func (e *ErrStoreUnavailable) Error() string {
	return "run storage is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are unwrapped, so a pipeline stage error reports the status
// of its cause.
func HTTPStatus(err error) int {
	var (
		acqErr    *arxiv.AcquisitionError
		genErr    *generation.GenerationError
		schemaErr *generation.SchemaValidationError
		valErr    *ErrValidation
		notFound  *ErrNotFound
		noStore   *ErrStoreUnavailable
	)

	switch {
	case errors.As(err, &valErr), errors.As(err, &acqErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noStore):
		return http.StatusServiceUnavailable
	case errors.As(err, &schemaErr), errors.As(err, &genErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
