package domain

import "errors"

// Domain errors as sentinel values
var (
	// Queue errors
	ErrQueueItemNotFound = errors.New("queue item not found")
	ErrInvalidTransition = errors.New("invalid queue status transition")
	ErrItemNotReplayable = errors.New("queue item is not in a replayable status")

	// Payload errors
	ErrInvalidIntent    = errors.New("unknown synchronization intent")
	ErrMissingTitle     = errors.New("listing title is required")
	ErrInvalidPrice     = errors.New("listing price must be positive")
	ErrMissingCurrency  = errors.New("listing currency is required")
	ErrInvalidQuantity  = errors.New("listing quantity cannot be negative")
	ErrMissingCategory  = errors.New("listing category is required")
	ErrMissingListingID = errors.New("listing id is required")
	ErrMissingRemoteID  = errors.New("remote item id is required")

	// Replay errors
	ErrStaleReplay = errors.New("local record changed since failure; replay rejected, enqueue current state instead")

	// Lookup errors
	ErrListingNotFound     = errors.New("listing not found")
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrFailedEventNotFound = errors.New("failed event not found")
	ErrPolicyNotFound      = errors.New("policy not found")
)

// ValidationError wraps the field-level cause of a payload that cannot be
// canonicalized. Publishers treat it as permanent.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return "payload validation failed: " + e.Cause.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
