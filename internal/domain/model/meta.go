package model

import "time"

// Meta carries identity and audit timestamps shared by every entity.
// Embedded rather than inherited; relations are plain foreign-key fields.
type Meta struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}
