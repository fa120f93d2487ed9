package database

import (
	"errors"
	"fmt"
)

// Sentinel errors exposed to callers. Matched with errors.Is at the edges.
var (
	ErrValidation             = errors.New("validation failed")
	ErrStoreNotFound          = errors.New("store not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrSlotFull               = errors.New("slot is fully booked")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrPastDate               = errors.New("date is in the past")
	ErrDateTooFar             = errors.New("date is too far in the future")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
	ErrUnavailable            = errors.New("storage unavailable")
)

// unavailable wraps a driver-level failure so callers can distinguish an
// outage from a domain error while keeping the original cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
