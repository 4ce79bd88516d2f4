package model

import "time"

// Book lifecycle statuses.
const (
	BookStatusDraft    = "DRAFT"
	BookStatusActive   = "ACTIVE"
	BookStatusInactive = "INACTIVE"
	BookStatusExpired  = "EXPIRED"
)

// CouponBook owns a pool of coupon codes and the policy applied to them.
// TotalCodes only ever grows; codes are never detached from their book.
type CouponBook struct {
	Meta
	Name                     string
	Description              string
	BusinessID               string
	MaxCodesPerUser          *int // nil means unlimited
	AllowMultipleRedemptions bool
	Status                   string
	ExpiresAt                *time.Time
	TotalCodes               int
}

// AcceptsAssignments reports whether the book may serve new assignments.
// Only ACTIVE books hand out codes.
func (b *CouponBook) AcceptsAssignments() bool {
	return b.Status == BookStatusActive
}

// ValidBookStatus reports whether s is a known book status.
func ValidBookStatus(s string) bool {
	switch s {
	case BookStatusDraft, BookStatusActive, BookStatusInactive, BookStatusExpired:
		return true
	}
	return false
}
