package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// nonceBytes is the entropy drawn per nonce. 32 bytes encode to 64 hex
// characters, far beyond practical guessing range.
const nonceBytes = 32

// NewNonce returns a cryptographically random, URL-safe nonce used as the
// OAuth state parameter. Each call produces a fresh value. An unreadable
// entropy source leaves no safe way to continue, so that panics.
func NewNonce() string {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("system entropy source unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
