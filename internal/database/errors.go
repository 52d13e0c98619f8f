package database

import "errors"

var (
	// ErrDuplicateKey signals a registration with an already-taken student id.
	ErrDuplicateKey = errors.New("student id already registered")

	// ErrInvalidCredentials is returned for any login mismatch. It deliberately
	// does not distinguish a wrong id from a wrong password.
	ErrInvalidCredentials = errors.New("invalid student id or password")

	// ErrInvalidRange signals a slot whose start is not strictly before its end.
	ErrInvalidRange = errors.New("start time must be before end time")

	// ErrSlotUnavailable signals a conflict with an active reservation.
	ErrSlotUnavailable = errors.New("slot is already reserved")

	// ErrUnknownDesk signals a desk outside the configured floor plan.
	ErrUnknownDesk = errors.New("unknown desk")

	// ErrNotFound signals a missing reservation.
	ErrNotFound = errors.New("reservation not found")
)
