package usecase

import (
	"crypto/rand"
	"io"
	"strings"

	"github.com/google/uuid"

	"coupon-lifecycle-engine/internal/domain"
)

// Pattern placeholders understood by the generator.
const (
	placeholderRandom = "{RANDOM}"
	placeholderNum    = "{NUM}"
	placeholderAlpha  = "{ALPHA}"
	placeholderUUID   = "{UUID}"
)

const (
	charsAlphaNum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	charsAlpha    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	charsDigits   = "0123456789"

	// DefaultRandomLength is the length of each expanded placeholder when the
	// caller does not specify one.
	DefaultRandomLength = 8
)

func randomString(n int, charset string) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = charset[int(buf[i])%len(charset)]
	}
	return string(buf), nil
}

// expandPattern produces one candidate code from the pattern. Repeated
// occurrences of the same placeholder expand to the same value within a
// single candidate.
func expandPattern(pattern string, randomLen int) (string, error) {
	out := pattern
	if strings.Contains(out, placeholderRandom) {
		v, err := randomString(randomLen, charsAlphaNum)
		if err != nil {
			return "", err
		}
		out = strings.ReplaceAll(out, placeholderRandom, v)
	}
	if strings.Contains(out, placeholderNum) {
		v, err := randomString(randomLen, charsDigits)
		if err != nil {
			return "", err
		}
		out = strings.ReplaceAll(out, placeholderNum, v)
	}
	if strings.Contains(out, placeholderAlpha) {
		v, err := randomString(randomLen, charsAlpha)
		if err != nil {
			return "", err
		}
		out = strings.ReplaceAll(out, placeholderAlpha, v)
	}
	if strings.Contains(out, placeholderUUID) {
		hex := strings.ReplaceAll(uuid.NewString(), "-", "")
		if randomLen < len(hex) {
			hex = hex[:randomLen]
		}
		out = strings.ReplaceAll(out, placeholderUUID, hex)
	}
	return out, nil
}

// GenerateCodes produces exactly count unique code strings from the pattern,
// none of which appear in existing. Generation retries up to count*10
// attempts; falling short is a hard Exhausted failure, never a partial result.
func GenerateCodes(pattern string, count int, existing []string, randomLen int) ([]string, error) {
	if count <= 0 || pattern == "" {
		return nil, domain.ErrInvalidArgument
	}
	if randomLen <= 0 {
		randomLen = DefaultRandomLength
	}

	taken := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		taken[c] = struct{}{}
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	maxAttempts := count * 10

	for attempts := 0; len(codes) < count && attempts < maxAttempts; attempts++ {
		candidate, err := expandPattern(pattern, randomLen)
		if err != nil {
			return nil, domain.Internal("generate code", err)
		}
		if _, dup := taken[candidate]; dup {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		codes = append(codes, candidate)
	}

	if len(codes) < count {
		return nil, domain.Exhausted("could not generate enough unique codes", count, len(codes))
	}
	return codes, nil
}
