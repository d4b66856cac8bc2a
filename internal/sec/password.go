package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N is the CPU/memory cost; the derived key length
// matches the stored hash format.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// HashPassword derives a salted scrypt hash for the given password. The
// result is self-contained: "hex(derived).hex(salt)", so verification needs
// no external state.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(derived) + "." + hex.EncodeToString(salt), nil
}

// ComparePassword re-derives the hash with the stored salt and compares in
// constant time. It returns [ErrBadCredentials] on mismatch or on a
// malformed stored value.
func ComparePassword(password, stored string) error {
	derivedHex, saltHex, ok := strings.Cut(stored, ".")
	if !ok {
		return fmt.Errorf("%w: malformed stored hash", ErrBadCredentials)
	}
	derived, err := hex.DecodeString(derivedHex)
	if err != nil || len(derived) != scryptKeyLen {
		return fmt.Errorf("%w: malformed stored hash", ErrBadCredentials)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return fmt.Errorf("%w: malformed stored hash", ErrBadCredentials)
	}
	supplied, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(derived))
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(derived, supplied) != 1 {
		return ErrBadCredentials
	}
	return nil
}
