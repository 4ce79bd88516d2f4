package usecase

import (
	"strings"
	"testing"

	"coupon-lifecycle-engine/internal/domain"
)

func TestGenerateCodes_CountAndUniqueness(t *testing.T) {
	t.Parallel()

	codes, err := GenerateCodes("SUMMER-{RANDOM}", 50, nil, 8)
	if err != nil {
		t.Fatalf("GenerateCodes: %v", err)
	}
	if len(codes) != 50 {
		t.Fatalf("expected 50 codes, got %d", len(codes))
	}
	seen := map[string]struct{}{}
	for _, c := range codes {
		if !strings.HasPrefix(c, "SUMMER-") {
			t.Fatalf("code %q does not match pattern", c)
		}
		if len(c) != len("SUMMER-")+8 {
			t.Fatalf("code %q has wrong expanded length", c)
		}
		if _, dup := seen[c]; dup {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = struct{}{}
	}
}

func TestGenerateCodes_Placeholders(t *testing.T) {
	t.Parallel()

	codes, err := GenerateCodes("A{NUM}B{ALPHA}C{UUID}", 1, nil, 4)
	if err != nil {
		t.Fatalf("GenerateCodes: %v", err)
	}
	c := codes[0]
	if len(c) != 3+4*3 {
		t.Fatalf("unexpected length for %q", c)
	}
	num := c[1:5]
	for _, r := range num {
		if r < '0' || r > '9' {
			t.Fatalf("{NUM} expansion %q contains non-digit", num)
		}
	}
	alpha := c[6:10]
	for _, r := range alpha {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			t.Fatalf("{ALPHA} expansion %q contains non-letter", alpha)
		}
	}
}

func TestGenerateCodes_AvoidsExisting(t *testing.T) {
	t.Parallel()

	// {NUM} with length 1 has ten possible values; exclude five of them.
	existing := []string{"X0", "X1", "X2", "X3", "X4"}
	codes, err := GenerateCodes("X{NUM}", 5, existing, 1)
	if err != nil {
		t.Fatalf("GenerateCodes: %v", err)
	}
	taken := map[string]struct{}{}
	for _, e := range existing {
		taken[e] = struct{}{}
	}
	for _, c := range codes {
		if _, clash := taken[c]; clash {
			t.Fatalf("generated code %q collides with existing", c)
		}
	}
}

func TestGenerateCodes_ExhaustedOnSmallSpace(t *testing.T) {
	t.Parallel()

	// Pattern space of size 10 cannot satisfy 20 unique codes.
	_, err := GenerateCodes("N{NUM}", 20, nil, 1)
	if err == nil {
		t.Fatalf("expected Exhausted error")
	}
	if !domain.IsKind(err, domain.KindExhausted) {
		t.Fatalf("expected Exhausted kind, got %v", err)
	}
	de := err.(*domain.Error)
	if de.Requested != 20 {
		t.Fatalf("expected requested=20 in error context, got %d", de.Requested)
	}
	if de.Available >= 20 {
		t.Fatalf("available %d should be short of requested", de.Available)
	}
}

func TestGenerateCodes_InvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := GenerateCodes("", 5, nil, 8); err == nil {
		t.Fatalf("expected error for empty pattern")
	}
	if _, err := GenerateCodes("X-{RANDOM}", 0, nil, 8); err == nil {
		t.Fatalf("expected error for zero count")
	}
}
