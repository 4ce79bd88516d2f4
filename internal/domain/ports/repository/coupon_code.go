package repository

import (
	"context"
	"time"

	"coupon-lifecycle-engine/internal/domain/model"
)

// CouponCodeRepository is the port for the contended code rows. Every method
// that feeds a state transition takes the Tx handle so the implementation can
// hold the row lock for the transaction's duration.
type CouponCodeRepository interface {
	// BulkInsert persists new AVAILABLE codes for a book.
	BulkInsert(ctx context.Context, tx Tx, codes []*model.CouponCode) error
	// FindByCode returns the code row or domain.NotFound. FOR UPDATE inside
	// a transaction.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.CouponCode, error)
	// ClaimAvailable selects exactly one AVAILABLE code of the book with an
	// exclusive row lock, or domain.NotFound when the pool is empty. Must be
	// called inside a transaction.
	ClaimAvailable(ctx context.Context, tx Tx, bookID string) (*model.CouponCode, error)
	// Update writes the mutable fields (status, assignment, lock, redemption
	// stamps) of an existing row.
	Update(ctx context.Context, tx Tx, code *model.CouponCode) error
	// ExistingCodes returns which of the given code strings already exist
	// anywhere in the system.
	ExistingCodes(ctx context.Context, tx Tx, codes []string) ([]string, error)
	// CodeStringsByBook lists every code string of one book (generator input).
	CodeStringsByBook(ctx context.Context, tx Tx, bookID string) ([]string, error)
	// ReclaimExpiredLocks flips every LOCKED row whose hold expired before
	// now back to ASSIGNED, clearing lock fields, as one set-based statement.
	// Returns the number of rows reclaimed.
	ReclaimExpiredLocks(ctx context.Context, tx Tx, now time.Time) (int, error)
}
