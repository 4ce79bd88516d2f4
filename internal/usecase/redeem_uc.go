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

// RedemptionUseCase performs the terminal (or policy-repeatable) transition
// and appends to the immutable redemption ledger.
type RedemptionUseCase struct {
	books       repository.CouponBookRepository
	codes       repository.CouponCodeRepository
	redemptions repository.RedemptionRepository
	txm         repository.TransactionManager
}

func NewRedemptionUseCase(
	books repository.CouponBookRepository,
	codes repository.CouponCodeRepository,
	redemptions repository.RedemptionRepository,
	txm repository.TransactionManager,
) *RedemptionUseCase {
	return &RedemptionUseCase{books: books, codes: codes, redemptions: redemptions, txm: txm}
}

// Redeem consumes the code for its assignee. A live hold by the caller is
// consumed by redemption, but a hold is not required: an ASSIGNED code
// redeems directly. Ledger row and status transition commit together or
// not at all.
func (uc *RedemptionUseCase) Redeem(ctx context.Context, codeStr, userID string, metadata map[string]string) (*model.Redemption, error) {
	var out *model.Redemption
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByCode(ctx, tx, codeStr)
		if err != nil {
			return err
		}
		if !code.AssignedTo(userID) {
			return domain.Forbidden("coupon is not assigned to this user", codeStr, userID)
		}

		now := time.Now()
		switch code.Status {
		case model.CodeStatusRedeemed:
			return domain.AlreadyRedeemed(codeStr)
		case model.CodeStatusAvailable:
			return domain.InvalidState("coupon must be assigned before redemption", codeStr)
		case model.CodeStatusLocked:
			if code.LockOwnerUserID == nil || *code.LockOwnerUserID != userID {
				return domain.Forbidden("coupon is locked by another user", codeStr, userID)
			}
			if code.LockExpired(now) {
				return domain.Expired("lock on coupon has expired", codeStr)
			}
			// Valid hold: consumed below.
		case model.CodeStatusAssigned:
			// redeemable without a hold
		default:
			return domain.InvalidState("coupon cannot be redeemed in its current state", codeStr)
		}

		book, err := uc.books.FindByID(ctx, tx, code.BookID)
		if err != nil {
			return err
		}

		r := &model.Redemption{
			ID:         ulid.Make().String(),
			CodeID:     code.ID,
			UserID:     userID,
			RedeemedAt: now,
			Metadata:   metadata,
			Code:       code.Code,
		}
		if err := uc.redemptions.Insert(ctx, tx, r); err != nil {
			return err
		}

		if book.AllowMultipleRedemptions {
			code.Status = model.CodeStatusAssigned
		} else {
			code.Status = model.CodeStatusRedeemed
		}
		code.RedeemedAt = &now
		code.ClearLock()
		code.UpdatedAt = now
		if err := uc.codes.Update(ctx, tx, code); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History lists the redemption ledger rows of a code, oldest first.
func (uc *RedemptionUseCase) History(ctx context.Context, codeID string) ([]*model.Redemption, error) {
	return uc.redemptions.ListByCode(ctx, nil, codeID)
}
