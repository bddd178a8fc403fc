package tool

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShortSessionID returns a short alphanumeric ID (8 hex chars) for share/download URLs.
func GenerateShortSessionID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return GenerateRandomUUID()[:8] // fallback
	}
	return hex.EncodeToString(b)
}

// GenerateFingerprint returns a random 32-character fingerprint
func GenerateFingerprint() string {
	return strings.ReplaceAll(GenerateRandomUUID(), "-", "")
}
