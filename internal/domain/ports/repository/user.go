package repository

import (
	"context"

	"coupon-lifecycle-engine/internal/domain/model"
)

// UserRepository is the identity lookup the engine consumes. Account
// management is an upstream concern; only reads appear here.
type UserRepository interface {
	// Exists reports whether the user id is known.
	Exists(ctx context.Context, tx Tx, id string) (bool, error)
	// FindByID returns the user or domain.NotFound.
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}
