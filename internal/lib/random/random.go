package random

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRandomString returns a hex string carrying size bytes of entropy
// from the operating system CSPRNG.
func NewRandomString(size int) string {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic("random: csprng unavailable: " + err.Error())
	}

	return hex.EncodeToString(b)
}
