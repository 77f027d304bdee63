package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrNoSlotAvailable       = errors.New("no slot available")
	ErrAlreadyReleased       = errors.New("slot already released")
	ErrRecordNotFound        = errors.New("record not found")
	ErrUpstreamFailure       = errors.New("upstream failure")
	ErrVehicleAlreadyEntered = errors.New("vehicle already entered")
	ErrHandlingPending       = errors.New("container handling not finished")
	ErrSlotHeld              = errors.New("ticket still holds a slot")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrValidation            = errors.New("validation failed")
)

// InvalidTransitionError carries the rejected (state, event) pair.
type InvalidTransitionError struct {
	From  TicketState
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s from %s", e.Event, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// NotFound builds a NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// UpstreamError wraps a non-2xx answer of the external API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// Is matches ErrUpstreamFailure, and ErrRecordNotFound for a 404 answer.
func (e *UpstreamError) Is(target error) bool {
	if target == ErrRecordNotFound {
		return e.Status == 404
	}
	return target == ErrUpstreamFailure
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
