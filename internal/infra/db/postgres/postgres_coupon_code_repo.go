package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.CouponCodeRepository = (*couponCodeRepo)(nil)

type couponCodeRepo struct {
	pool *pgxpool.Pool
}

func NewCouponCodeRepo(pool *pgxpool.Pool) *couponCodeRepo {
	return &couponCodeRepo{pool: pool}
}

const codeColumns = `id, code, book_id, status, assigned_to_user_id, assigned_at,
       lock_owner_user_id, lock_expires_at, redeemed_at, created_at, updated_at`

func (r *couponCodeRepo) BulkInsert(ctx context.Context, tx repository.Tx, codes []*model.CouponCode) error {
	if len(codes) == 0 {
		return nil
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO coupon_codes (
  id, code, book_id, status, assigned_to_user_id, assigned_at,
  lock_owner_user_id, lock_expires_at, redeemed_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(q,
			c.ID, c.Code, c.BookID, c.Status, c.AssignedToUserID, c.AssignedAt,
			c.LockOwnerUserID, c.LockExpiresAt, c.RedeemedAt, c.CreatedAt, c.UpdatedAt,
		)
	}

	br := ex.SendBatch(ctx, batch)
	defer br.Close()
	for range codes {
		if _, err := br.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.Conflict("coupon code already exists", "", "")
			}
			return domain.Internal("bulk insert codes", err)
		}
	}
	return nil
}

func (r *couponCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.CouponCode, error) {
	q := `SELECT ` + codeColumns + `
  FROM coupon_codes
 WHERE code=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, code)
}

func (r *couponCodeRepo) ClaimAvailable(ctx context.Context, tx repository.Tx, bookID string) (*model.CouponCode, error) {
	// SKIP LOCKED keeps concurrent claimants from queueing on the same row;
	// each transaction grabs a different AVAILABLE code or finds none.
	const q = `
SELECT ` + codeColumns + `
  FROM coupon_codes
 WHERE book_id=$1 AND status='AVAILABLE'
 ORDER BY created_at ASC
 LIMIT 1
 FOR UPDATE SKIP LOCKED;`
	return r.queryOne(ctx, tx, q, bookID)
}

func (r *couponCodeRepo) Update(ctx context.Context, tx repository.Tx, c *model.CouponCode) error {
	const q = `
UPDATE coupon_codes
   SET status=$2, assigned_to_user_id=$3, assigned_at=$4,
       lock_owner_user_id=$5, lock_expires_at=$6, redeemed_at=$7, updated_at=NOW()
 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Status, c.AssignedToUserID, c.AssignedAt,
		c.LockOwnerUserID, c.LockExpiresAt, c.RedeemedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.Internal("update coupon code", err)
		}
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("coupon code not found", c.Code)
	}
	return nil
}

func (r *couponCodeRepo) ExistingCodes(ctx context.Context, tx repository.Tx, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	const q = `SELECT code FROM coupon_codes WHERE code = ANY($1);`
	rows, err := queryRows(ctx, r.pool, tx, q, codes)
	if err != nil {
		return nil, domain.Internal("lookup existing codes", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *couponCodeRepo) CodeStringsByBook(ctx context.Context, tx repository.Tx, bookID string) ([]string, error) {
	const q = `SELECT code FROM coupon_codes WHERE book_id=$1;`
	rows, err := queryRows(ctx, r.pool, tx, q, bookID)
	if err != nil {
		return nil, domain.Internal("list book codes", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *couponCodeRepo) ReclaimExpiredLocks(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	// One set-based statement; per-row transactions would let a crashed
	// sweep leave half the expired holds behind.
	const q = `
UPDATE coupon_codes
   SET status='ASSIGNED', lock_owner_user_id=NULL, lock_expires_at=NULL, updated_at=NOW()
 WHERE status='LOCKED' AND lock_expires_at < $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return 0, err
		default:
			return 0, domain.Internal("reclaim expired locks", err)
		}
	}
	return int(ct.RowsAffected()), nil
}

func (r *couponCodeRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.CouponCode, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}

	c := &model.CouponCode{}
	if err := row.Scan(
		&c.ID, &c.Code, &c.BookID, &c.Status, &c.AssignedToUserID, &c.AssignedAt,
		&c.LockOwnerUserID, &c.LockExpiresAt, &c.RedeemedAt, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("coupon code not found", "")
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}
