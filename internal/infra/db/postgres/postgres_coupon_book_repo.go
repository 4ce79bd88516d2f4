package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.CouponBookRepository = (*couponBookRepo)(nil)

type couponBookRepo struct {
	pool *pgxpool.Pool
}

func NewCouponBookRepo(pool *pgxpool.Pool) *couponBookRepo {
	return &couponBookRepo{pool: pool}
}

func (r *couponBookRepo) Save(ctx context.Context, tx repository.Tx, b *model.CouponBook) error {
	const q = `
INSERT INTO coupon_books (
  id, name, description, business_id, max_codes_per_user,
  allow_multiple_redemptions, status, expires_at, total_codes, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, max_codes_per_user=$5,
  allow_multiple_redemptions=$6, status=$7, expires_at=$8, total_codes=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q,
		b.ID, b.Name, b.Description, b.BusinessID, b.MaxCodesPerUser,
		b.AllowMultipleRedemptions, b.Status, b.ExpiresAt, b.TotalCodes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.Internal("save coupon book", err)
		}
	}
	return nil
}

func (r *couponBookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
	q := `
SELECT id, name, description, business_id, max_codes_per_user,
       allow_multiple_redemptions, status, expires_at, total_codes, created_at, updated_at
  FROM coupon_books
 WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var b model.CouponBook
	if err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.BusinessID, &b.MaxCodesPerUser,
		&b.AllowMultipleRedemptions, &b.Status, &b.ExpiresAt, &b.TotalCodes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("coupon book not found", id)
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &b, nil
}

func (r *couponBookRepo) IncrementTotalCodes(ctx context.Context, tx repository.Tx, id string, n int) error {
	const q = `
UPDATE coupon_books
   SET total_codes = total_codes + $2, updated_at = NOW()
 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, n)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.Internal("increment total codes", err)
		}
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("coupon book not found", id)
	}
	return nil
}
