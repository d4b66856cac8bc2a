package storage

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 24 * time.Hour

const sessionTokenBytes = 32

// newSessionToken generates a cryptographically random opaque token shared
// by both session store backends.
func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
