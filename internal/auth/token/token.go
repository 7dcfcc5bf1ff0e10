// Package token mints opaque session tokens. The raw token goes to the
// client; the server keeps only its one-way hash.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
)

// EntropyBytes is the random length of a raw token before encoding.
const EntropyBytes = 16

// Issue returns a fresh random token and its hash. The raw value must not be
// logged or persisted; callers store only the hash.
func Issue() (raw, hash string, err error) {
	buf := make([]byte, EntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", customErrors.WrapInternal(err, "generate token")
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash is the one-way function applied to both freshly issued tokens and
// bearer tokens presented later. SHA-256, lowercase hex.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewRef returns a short random reference suitable for public share links.
func NewRef(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", customErrors.WrapInternal(err, "generate ref")
	}
	return hex.EncodeToString(buf), nil
}
