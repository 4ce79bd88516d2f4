package model

import "time"

// Assignment is the append-only ledger row recording that a code was handed
// to a user. Unique on (UserID, CodeID); never mutated after insert. Quota
// counting reads this ledger, not the mutable code row.
type Assignment struct {
	ID         string
	CodeID     string
	UserID     string
	AssignedAt time.Time

	// Code is the coupon code string, denormalized into responses so callers
	// do not need a second lookup. Not a stored column.
	Code string
}
