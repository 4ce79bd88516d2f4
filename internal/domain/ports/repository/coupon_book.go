package repository

import (
	"context"

	"coupon-lifecycle-engine/internal/domain/model"
)

// CouponBookRepository is the port for book rows.
type CouponBookRepository interface {
	// Save inserts or updates a book.
	Save(ctx context.Context, tx Tx, book *model.CouponBook) error
	// FindByID returns the book or domain.NotFound. Inside a transaction the
	// row is read FOR UPDATE.
	FindByID(ctx context.Context, tx Tx, id string) (*model.CouponBook, error)
	// IncrementTotalCodes bumps total_codes by n (n > 0; the counter never
	// decreases).
	IncrementTotalCodes(ctx context.Context, tx Tx, id string, n int) error
}
