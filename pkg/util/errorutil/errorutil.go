package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts core errors to a DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return &DomainError{
			Code:       "INVALID_TRANSITION",
			Message:    transition.Error(),
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"state": transition.From, "event": transition.Event},
			Err:        err,
		}
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    validation.Error(),
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"field": validation.Field},
			Err:        err,
		}
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return &DomainError{
			Code:       "NOT_FOUND",
			Message:    fmt.Sprintf("%s not found", notFound.Resource),
			HTTPStatus: http.StatusNotFound,
			Details:    map[string]any{"id": notFound.ID},
			Err:        err,
		}
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return wrap(err, "NOT_FOUND", "resource not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNoSlotAvailable):
		return wrap(err, "NO_SLOT_AVAILABLE", "no slot available", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyReleased):
		return wrap(err, "ALREADY_RELEASED", "slot already released", http.StatusConflict)
	case errors.Is(err, domain.ErrSlotHeld):
		return wrap(err, "SLOT_HELD", "ticket still holds a slot", http.StatusConflict)
	case errors.Is(err, domain.ErrHandlingPending):
		return wrap(err, "HANDLING_PENDING", "container handling not finished", http.StatusConflict)
	case errors.Is(err, domain.ErrVehicleAlreadyEntered):
		return wrap(err, "VEHICLE_ALREADY_ENTERED", "vehicle already entered", http.StatusConflict)
	case errors.Is(err, domain.ErrForbidden):
		return wrap(err, "FORBIDDEN", "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return wrap(err, "INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrValidation):
		return wrap(err, "VALIDATION_FAILED", err.Error(), http.StatusBadRequest)
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return &DomainError{
			Code:       "UPSTREAM_FAILURE",
			Message:    upstream.Error(),
			HTTPStatus: http.StatusBadGateway,
			Details:    map[string]any{"status": upstream.Status},
			Err:        err,
		}
	}
	if errors.Is(err, domain.ErrUpstreamFailure) {
		return wrap(err, "UPSTREAM_FAILURE", "upstream unavailable", http.StatusBadGateway)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(fiberErr.Code), " ", "_"))
		return wrap(err, code, fiberErr.Message, fiberErr.Code)
	}

	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func wrap(err error, code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
