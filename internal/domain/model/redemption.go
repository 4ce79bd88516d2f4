package model

import "time"

// Redemption is the immutable ledger row for a consumption event. Books that
// allow multiple redemptions accumulate several rows per code.
type Redemption struct {
	ID         string
	CodeID     string
	UserID     string
	RedeemedAt time.Time
	Metadata   map[string]string // location, transaction reference, notes

	// Code mirrors Assignment.Code: response convenience, not a column.
	Code string
}
