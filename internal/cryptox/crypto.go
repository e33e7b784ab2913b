// Package cryptox holds the small set of cryptographic helpers used by the
// server: argon2id hashing of one-time codes and HMAC-SHA512 signing of
// payment webhooks.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/jengacalc/jengacalc/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt generated per code.
const SaltSize = 16

// HashCode derives an argon2id digest of a one-time code. Parameters are
// sized for short-lived codes, not passwords.
func HashCode(code string, salt []byte) []byte {
	return argon2.IDKey([]byte(code), salt, 1, 16*1024, 2, 32)
}

// NewCodeHash generates a fresh salt and returns it together with the digest
// of code.
func NewCodeHash(code string) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	return HashCode(code, salt), salt
}

// VerifyCode reports whether code hashes to want under salt. The comparison
// runs in constant time.
func VerifyCode(code string, salt, want []byte) bool {
	got := HashCode(code, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// SignHMACSHA512 returns the hex-encoded HMAC-SHA512 of body under key.
func SignHMACSHA512(body, key []byte) string {
	mac := hmac.New(sha512.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMACSHA512 checks a hex-encoded HMAC-SHA512 signature of body.
// Malformed hex is treated as a mismatch.
func VerifyHMACSHA512(body, key []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, key)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
