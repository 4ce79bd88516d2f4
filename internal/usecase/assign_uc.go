package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// AssignmentUseCase hands codes to users under contention. Both entry points
// run the whole claim inside one transaction: preconditions are evaluated
// only after the code row is locked, so a losing racer re-reads current state
// rather than a stale snapshot.
type AssignmentUseCase struct {
	users       repository.UserRepository
	books       repository.CouponBookRepository
	codes       repository.CouponCodeRepository
	assignments repository.AssignmentRepository
	txm         repository.TransactionManager
}

func NewAssignmentUseCase(
	users repository.UserRepository,
	books repository.CouponBookRepository,
	codes repository.CouponCodeRepository,
	assignments repository.AssignmentRepository,
	txm repository.TransactionManager,
) *AssignmentUseCase {
	return &AssignmentUseCase{users: users, books: books, codes: codes, assignments: assignments, txm: txm}
}

// Assign picks one AVAILABLE code from the book for the user. Failure modes
// in precondition order: unknown user, unknown book, non-ACTIVE book, quota
// reached, empty pool.
func (uc *AssignmentUseCase) Assign(ctx context.Context, bookID, userID string) (*model.Assignment, error) {
	var out *model.Assignment
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.userMustExist(ctx, tx, userID); err != nil {
			return err
		}
		book, err := uc.preconditions(ctx, tx, bookID, userID)
		if err != nil {
			return err
		}

		code, err := uc.codes.ClaimAvailable(ctx, tx, book.ID)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				return domain.Exhausted("no codes available in this book", 1, 0)
			}
			return err
		}

		a, err := uc.claim(ctx, tx, code, userID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignSpecific claims a caller-named code instead of an arbitrary one.
// A known code that is no longer AVAILABLE is a Conflict, not Exhausted.
func (uc *AssignmentUseCase) AssignSpecific(ctx context.Context, codeStr, userID string) (*model.Assignment, error) {
	var out *model.Assignment
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.userMustExist(ctx, tx, userID); err != nil {
			return err
		}
		code, err := uc.codes.FindByCode(ctx, tx, codeStr)
		if err != nil {
			return err
		}
		if _, err := uc.preconditions(ctx, tx, code.BookID, userID); err != nil {
			return err
		}
		if code.Status != model.CodeStatusAvailable {
			return domain.Conflict("coupon is not available for assignment", codeStr, "")
		}

		a, err := uc.claim(ctx, tx, code, userID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UserAssignments lists the user's ledger, newest first.
func (uc *AssignmentUseCase) UserAssignments(ctx context.Context, userID string) ([]*model.Assignment, error) {
	return uc.assignments.ListByUser(ctx, nil, userID)
}

func (uc *AssignmentUseCase) userMustExist(ctx context.Context, tx repository.Tx, userID string) error {
	ok, err := uc.users.Exists(ctx, tx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("user not found", userID)
	}
	return nil
}

// preconditions checks book state and quota in the order the failure taxonomy
// demands; the user-exists check runs before this at each entry point.
// Returns the book for further policy checks.
func (uc *AssignmentUseCase) preconditions(ctx context.Context, tx repository.Tx, bookID, userID string) (*model.CouponBook, error) {
	book, err := uc.books.FindByID(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.AcceptsAssignments() {
		return nil, domain.InvalidState("coupon book is not active", bookID)
	}

	if book.MaxCodesPerUser != nil {
		n, err := uc.assignments.CountByUserAndBook(ctx, tx, userID, book.ID)
		if err != nil {
			return nil, err
		}
		if n >= *book.MaxCodesPerUser {
			return nil, domain.QuotaExceeded("maximum codes per user reached for this book", *book.MaxCodesPerUser)
		}
	}
	return book, nil
}

// claim flips the locked row to ASSIGNED and appends the ledger entry; both
// writes belong to the caller's transaction.
func (uc *AssignmentUseCase) claim(ctx context.Context, tx repository.Tx, code *model.CouponCode, userID string) (*model.Assignment, error) {
	now := time.Now()
	code.Status = model.CodeStatusAssigned
	code.AssignedToUserID = &userID
	code.AssignedAt = &now
	code.UpdatedAt = now
	if err := uc.codes.Update(ctx, tx, code); err != nil {
		return nil, err
	}

	a := &model.Assignment{
		ID:         ulid.Make().String(),
		CodeID:     code.ID,
		UserID:     userID,
		AssignedAt: now,
		Code:       code.Code,
	}
	if err := uc.assignments.Insert(ctx, tx, a); err != nil {
		return nil, err
	}
	return a, nil
}
