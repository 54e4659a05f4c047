/*
Package password derives and verifies salted password hashes.

A stored credential has the form "salt:derived", where salt is 32 hex characters of fresh
randomness and derived is the hex PBKDF2-HMAC-SHA256 output over the password and salt.
The salt enters the derivation as its hex text, which keeps hashes written by earlier
deployments verifiable.
*/
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"aqimonitor/internal/pkg/randx"
)

const (
	// Iterations is the PBKDF2 round count.
	Iterations = 100_000

	// SaltBytes is the amount of randomness per salt, before hex encoding.
	SaltBytes = 16

	// KeyLength is the derived key size in bytes, equal to the SHA-256 output size.
	KeyLength = sha256.Size

	separator = ":"
)

// Hash returns a new "salt:derived" credential for plain. Every call uses a fresh salt.
func Hash(plain string) (string, error) {
	salt, err := randx.Hex(SaltBytes)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return salt + separator + hex.EncodeToString(derive(plain, salt)), nil
}

// Verify reports whether plain matches stored. Malformed stored values never match.
func Verify(plain, stored string) bool {
	salt, expectedHex, ok := strings.Cut(stored, separator)
	if !ok || salt == "" || strings.Contains(expectedHex, separator) {
		return false
	}

	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) != KeyLength {
		return false
	}

	return subtle.ConstantTimeCompare(derive(plain, salt), expected) == 1
}

func derive(plain, salt string) []byte {
	return pbkdf2.Key([]byte(plain), []byte(salt), Iterations, KeyLength, sha256.New)
}
