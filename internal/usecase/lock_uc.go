package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"coupon-lifecycle-engine/internal/domain"
	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

// Lock policy constants. A hold is a logical reservation with its own TTL,
// independent of any transaction or connection lifetime.
const (
	DefaultLockTTL = 24 * time.Hour
	MaxLockTTL     = 7 * 24 * time.Hour
)

// LockPolicy is the configured TTL policy for holds.
type LockPolicy struct {
	TTL time.Duration
}

// NewLockPolicy clamps the configured TTL into (0, MaxLockTTL].
func NewLockPolicy(ttl time.Duration) LockPolicy {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if ttl > MaxLockTTL {
		ttl = MaxLockTTL
	}
	return LockPolicy{TTL: ttl}
}

// LockUseCase governs the ASSIGNED<->LOCKED edge of the code state machine.
type LockUseCase struct {
	codes  repository.CouponCodeRepository
	txm    repository.TransactionManager
	policy LockPolicy
}

func NewLockUseCase(codes repository.CouponCodeRepository, txm repository.TransactionManager, policy LockPolicy) *LockUseCase {
	if policy.TTL <= 0 {
		policy = NewLockPolicy(0)
	}
	return &LockUseCase{codes: codes, txm: txm, policy: policy}
}

// Lock grants the assignee a time-bounded exclusive hold. Re-locking an
// unexpired hold held by the same user returns the current window unchanged;
// the TTL is deliberately NOT extended. An expired self-hold is re-stamped.
func (uc *LockUseCase) Lock(ctx context.Context, codeStr, userID string) (*model.CouponCode, error) {
	var out *model.CouponCode
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
		case model.CodeStatusLocked:
			if code.LockOwnerUserID != nil && *code.LockOwnerUserID != userID {
				return domain.Conflict("coupon is locked by another user", codeStr, *code.LockOwnerUserID)
			}
			if !code.LockExpired(now) {
				// Idempotent: same owner, live hold, same window.
				out = code
				return nil
			}
		case model.CodeStatusAssigned:
			// lockable
		default:
			return domain.InvalidState("coupon cannot be locked in its current state", codeStr)
		}

		expires := now.Add(uc.policy.TTL)
		code.Status = model.CodeStatusLocked
		code.LockOwnerUserID = &userID
		code.LockExpiresAt = &expires
		code.UpdatedAt = now
		if err := uc.codes.Update(ctx, tx, code); err != nil {
			return err
		}
		out = code
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Unlock releases a hold explicitly, returning the code to ASSIGNED with all
// lock fields cleared in one write.
func (uc *LockUseCase) Unlock(ctx context.Context, codeStr, userID string) (*model.CouponCode, error) {
	var out *model.CouponCode
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByCode(ctx, tx, codeStr)
		if err != nil {
			return err
		}
		if code.Status != model.CodeStatusLocked {
			return domain.InvalidState("coupon is not locked", codeStr)
		}
		if code.LockOwnerUserID == nil || *code.LockOwnerUserID != userID {
			return domain.Forbidden("coupon is locked by another user", codeStr, userID)
		}

		code.Status = model.CodeStatusAssigned
		code.ClearLock()
		code.UpdatedAt = time.Now()
		if err := uc.codes.Update(ctx, tx, code); err != nil {
			return err
		}
		out = code
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReclaimExpired sweeps every expired hold back to ASSIGNED in one set-based
// statement and reports how many were reclaimed. Codes already unlocked or
// redeemed no longer match the predicate, so a concurrent sweep never reverts
// them.
func (uc *LockUseCase) ReclaimExpired(ctx context.Context) (int, error) {
	return uc.codes.ReclaimExpiredLocks(ctx, nil, time.Now())
}
