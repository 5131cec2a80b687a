package questerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the quest engine. Services wrap these with context via
// fmt.Errorf("...: %w", ...); handlers map them to HTTP codes with errors.Is
// so a client can always tell "not yours" from "already done" from "time's
// up".
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrExpired         = errors.New("expired")
	ErrValidation      = errors.New("validation failed")
	ErrExternalService = errors.New("external service failure")

	// ErrAlreadySubmitted is the InvalidState flavor returned when a
	// submission hits a non-pending record.
	ErrAlreadySubmitted = fmt.Errorf("already submitted: %w", ErrInvalidState)

	// ErrBlockedContent is the Validation flavor returned when the safety
	// inspector flags an image with high confidence.
	ErrBlockedContent = fmt.Errorf("content blocked: %w", ErrValidation)
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
