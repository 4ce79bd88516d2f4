package model

import "time"

// Coupon code statuses. The ASSIGNED<->LOCKED edge is governed by the lock
// manager; REDEEMED is terminal unless the owning book allows multiple
// redemptions.
const (
	CodeStatusAvailable = "AVAILABLE"
	CodeStatusAssigned  = "ASSIGNED"
	CodeStatusLocked    = "LOCKED"
	CodeStatusRedeemed  = "REDEEMED"
	CodeStatusExpired   = "EXPIRED"
)

// CouponCode is a single redeemable string drawn from a book's pool.
// Invariants: Code is immutable and globally unique; status LOCKED implies
// both lock fields are set; any of ASSIGNED/LOCKED/REDEEMED implies
// AssignedToUserID is set.
type CouponCode struct {
	Meta
	Code             string
	BookID           string
	Status           string
	AssignedToUserID *string
	AssignedAt       *time.Time
	LockOwnerUserID  *string
	LockExpiresAt    *time.Time
	RedeemedAt       *time.Time
}

// AssignedTo reports whether the code is assigned to the given user.
func (c *CouponCode) AssignedTo(userID string) bool {
	return c.AssignedToUserID != nil && *c.AssignedToUserID == userID
}

// LockExpired reports whether the code carries a lock whose TTL has elapsed.
// False for codes that are not LOCKED at all.
func (c *CouponCode) LockExpired(now time.Time) bool {
	return c.Status == CodeStatusLocked && c.LockExpiresAt != nil && c.LockExpiresAt.Before(now)
}

// LockedBy reports whether the code is LOCKED by userID with an unexpired hold.
func (c *CouponCode) LockedBy(userID string, now time.Time) bool {
	return c.Status == CodeStatusLocked &&
		c.LockOwnerUserID != nil && *c.LockOwnerUserID == userID &&
		c.LockExpiresAt != nil && c.LockExpiresAt.After(now)
}

// ClearLock nulls all lock fields. Callers decide the resulting status.
func (c *CouponCode) ClearLock() {
	c.LockOwnerUserID = nil
	c.LockExpiresAt = nil
}
