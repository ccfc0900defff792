package domain

import (
	"context"
	"errors"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Orchestration taxonomy
	ErrValidation           = errors.New("validation failed")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrRemoteFailure        = errors.New("remote job failed")
	ErrTimeout              = errors.New("polling ceiling exceeded")
	ErrCanceled             = errors.New("operation canceled")
	ErrUploadFailure        = errors.New("upload failed")
	ErrProcessingIncomplete = errors.New("processing not confirmed")
	ErrTransientPoll        = errors.New("transient poll error")
	ErrMediaProcessing      = errors.New("media processing failed")
)

// ErrorKind maps err onto a short, stable label used for metrics and HTTP status mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidArgument):
		return "validation"
	case errors.Is(err, ErrNotAuthenticated):
		return "auth"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrRemoteFailure):
		return "remote_failure"
	case errors.Is(err, ErrUploadFailure):
		return "upload_failure"
	case errors.Is(err, ErrMediaProcessing):
		return "media_failure"
	default:
		return "internal"
	}
}
