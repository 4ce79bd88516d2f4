package model

import (
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func TestCouponBook_AcceptsAssignments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status string
		want   bool
	}{
		{BookStatusDraft, false},
		{BookStatusActive, true},
		{BookStatusInactive, false},
		{BookStatusExpired, false},
	}
	for _, c := range cases {
		b := &CouponBook{Status: c.status}
		if got := b.AcceptsAssignments(); got != c.want {
			t.Errorf("status %s: AcceptsAssignments = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestCouponCode_LockGuards(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	live := &CouponCode{
		Status:          CodeStatusLocked,
		LockOwnerUserID: strp("user-a"),
		LockExpiresAt:   &future,
	}
	if live.LockExpired(now) {
		t.Errorf("unexpired lock reported expired")
	}
	if !live.LockedBy("user-a", now) {
		t.Errorf("expected lock held by user-a")
	}
	if live.LockedBy("user-b", now) {
		t.Errorf("lock must not be attributed to user-b")
	}

	stale := &CouponCode{
		Status:          CodeStatusLocked,
		LockOwnerUserID: strp("user-a"),
		LockExpiresAt:   &past,
	}
	if !stale.LockExpired(now) {
		t.Errorf("expired lock not detected")
	}
	if stale.LockedBy("user-a", now) {
		t.Errorf("expired lock must not count as held")
	}

	// A merely ASSIGNED code is never "lock expired".
	assigned := &CouponCode{Status: CodeStatusAssigned, AssignedToUserID: strp("user-a")}
	if assigned.LockExpired(now) {
		t.Errorf("assigned code reported lock expired")
	}
	if !assigned.AssignedTo("user-a") {
		t.Errorf("expected AssignedTo user-a")
	}
}

func TestCouponCode_ClearLock(t *testing.T) {
	t.Parallel()

	future := time.Now().Add(time.Hour)
	c := &CouponCode{
		Status:          CodeStatusLocked,
		LockOwnerUserID: strp("user-a"),
		LockExpiresAt:   &future,
	}
	c.ClearLock()
	if c.LockOwnerUserID != nil || c.LockExpiresAt != nil {
		t.Fatalf("lock fields not cleared: %+v", c)
	}
}
