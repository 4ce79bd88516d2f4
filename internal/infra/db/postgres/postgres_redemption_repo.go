package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.RedemptionRepository = (*redemptionRepo)(nil)

type redemptionRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepo(pool *pgxpool.Pool) *redemptionRepo {
	return &redemptionRepo{pool: pool}
}

func (r *redemptionRepo) Insert(ctx context.Context, tx repository.Tx, rd *model.Redemption) error {
	const q = `
INSERT INTO redemptions (id, code_id, user_id, redeemed_at, metadata)
VALUES ($1,$2,$3,$4,$5);`
	var meta []byte
	if len(rd.Metadata) > 0 {
		b, err := json.Marshal(rd.Metadata)
		if err != nil {
			return domain.Internal("encode redemption metadata", err)
		}
		meta = b
	}
	_, err := execSQL(ctx, r.pool, tx, q, rd.ID, rd.CodeID, rd.UserID, rd.RedeemedAt, meta)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.Internal("insert redemption", err)
		}
	}
	return nil
}

func (r *redemptionRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string) ([]*model.Redemption, error) {
	const q = `
SELECT r.id, r.code_id, r.user_id, r.redeemed_at, r.metadata, c.code
  FROM redemptions r
  JOIN coupon_codes c ON c.id = r.code_id
 WHERE r.code_id = $1
 ORDER BY r.redeemed_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return nil, domain.Internal("list redemptions", err)
	}
	defer rows.Close()
	var out []*model.Redemption
	for rows.Next() {
		var rd model.Redemption
		var meta []byte
		if err := rows.Scan(&rd.ID, &rd.CodeID, &rd.UserID, &rd.RedeemedAt, &meta, &rd.Code); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rd.Metadata); err != nil {
				return nil, domain.ErrReadDatabaseRow
			}
		}
		out = append(out, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
