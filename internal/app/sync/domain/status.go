package domain

// Status is the lifecycle state of a change queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusDead       Status = "dead"
)

// Active statuses are the ones covered by the per-(listing, payload hash)
// uniqueness invariant: while one of these rows exists, re-enqueueing the
// same payload is a no-op.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusError:
		return true
	}
	return false
}

// Terminal statuses never transition except via explicit replay, which
// creates a fresh row rather than resurrecting the old one.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusDead
}

// transitions is the full status machine. pending -> processing by claim;
// processing -> complete | error | dead by the publisher; error -> processing
// when the claim scan picks an error row whose backoff elapsed (the
// error -> pending -> processing hop is collapsed into one transition);
// processing -> processing when a lease expires and another worker reclaims.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusComplete, StatusError, StatusDead, StatusProcessing},
	StatusError:      {StatusProcessing},
	StatusComplete:   {},
	StatusDead:       {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveStatuses returns the statuses covered by the uniqueness invariant,
// in the order repositories scan them.
func ActiveStatuses() []string {
	return []string{string(StatusPending), string(StatusProcessing), string(StatusError)}
}
