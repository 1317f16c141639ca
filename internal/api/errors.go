package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/applypilot/applypilot-api/internal/service/auth"
	"github.com/applypilot/applypilot-api/internal/store"
	"github.com/applypilot/applypilot-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Back-pressure
	case errors.Is(err, task.ErrQueueFull):
		return http.StatusTooManyRequests

	// Shutdown in progress
	case errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	// Bad request errors
	case errors.Is(err, task.ErrUnknownKind),
		errors.Is(err, task.ErrKindDisabled),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, task.ErrQueueFull):
		return "Task queue is full, try again later"

	case errors.Is(err, task.ErrQueueClosed):
		return "Service is shutting down"

	case errors.Is(err, task.ErrUnknownKind):
		return "Unknown task kind"

	case errors.Is(err, task.ErrKindDisabled):
		return "Task kind is not enabled on this deployment"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'SubmitTaskRequest.Kind' Error:Field validation
	// for 'Kind' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
