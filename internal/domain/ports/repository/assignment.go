package repository

import (
	"context"

	"coupon-lifecycle-engine/internal/domain/model"
)

// AssignmentRepository is the port for the append-only assignment ledger.
type AssignmentRepository interface {
	// Insert appends a ledger row. Duplicate (user, code) pairs surface as
	// domain.Conflict.
	Insert(ctx context.Context, tx Tx, a *model.Assignment) error
	// CountByUserAndBook counts a user's assignments inside one book, for
	// quota enforcement.
	CountByUserAndBook(ctx context.Context, tx Tx, userID, bookID string) (int, error)
	// ListByUser returns a user's assignments, newest first, with the coupon
	// code string joined in.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Assignment, error)
}
