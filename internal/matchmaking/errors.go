package matchmaking

import "errors"

var (
	// ErrInvalidEntry is returned by Enqueue when an entry violates a
	// structural invariant (sizes, player-id count, empty required field).
	ErrInvalidEntry = errors.New("invalid queue entry")

	// ErrDuplicateParty is returned by Enqueue when the party is already
	// queued somewhere in the index.
	ErrDuplicateParty = errors.New("party already queued")
)
