package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Access tokens are 20 random bytes hex-encoded. The raw token is handed to
// the recipient once and never stored; lookups go through the sha256 digest,
// so a stored grant row reveals nothing about its token and resolution never
// compares token bytes directly.
const rawLen = 20

func Mint() (string, error) {
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Digest maps any presented string to its lookup digest. There is no shape
// check on purpose: a malformed token digests and probes like an unknown one,
// so the two cost the same from the outside.
func Digest(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
