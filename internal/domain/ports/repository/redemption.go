package repository

import (
	"context"

	"coupon-lifecycle-engine/internal/domain/model"
)

// RedemptionRepository is the port for the append-only redemption ledger.
type RedemptionRepository interface {
	// Insert appends a redemption row.
	Insert(ctx context.Context, tx Tx, r *model.Redemption) error
	// ListByCode returns redemption rows for a code, oldest first.
	ListByCode(ctx context.Context, tx Tx, codeID string) ([]*model.Redemption, error)
}
