package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.AssignmentRepository = (*assignmentRepo)(nil)

type assignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *assignmentRepo {
	return &assignmentRepo{pool: pool}
}

func (r *assignmentRepo) Insert(ctx context.Context, tx repository.Tx, a *model.Assignment) error {
	const q = `
INSERT INTO assignments (id, code_id, user_id, assigned_at)
VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.CodeID, a.UserID, a.AssignedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.Conflict("code already assigned to user", a.Code, a.UserID)
			}
			return domain.Internal("insert assignment", err)
		}
	}
	return nil
}

func (r *assignmentRepo) CountByUserAndBook(ctx context.Context, tx repository.Tx, userID, bookID string) (int, error) {
	const q = `
SELECT COUNT(*)
  FROM assignments a
  JOIN coupon_codes c ON c.id = a.code_id
 WHERE a.user_id = $1 AND c.book_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, bookID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *assignmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Assignment, error) {
	const q = `
SELECT a.id, a.code_id, a.user_id, a.assigned_at, c.code
  FROM assignments a
  JOIN coupon_codes c ON c.id = a.code_id
 WHERE a.user_id = $1
 ORDER BY a.assigned_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, domain.Internal("list assignments", err)
	}
	defer rows.Close()
	var out []*model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CodeID, &a.UserID, &a.AssignedAt, &a.Code); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
