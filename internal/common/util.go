package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NormalizeEmail trims and lower-cases an email address so it can be used as
// the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lower-cased part after the last '@', or "" if there is none.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// GenerateRandByteArray returns n bytes from crypto/rand.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// MakeNumericCode returns a uniformly random decimal code with exactly
// digits digits and no leading zero (e.g. 100000..999999 for 6).
func MakeNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("%w: digits must be positive", ErrInvalidInput)
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}
