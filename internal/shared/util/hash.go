package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey derives a stable storage namespace from a user identity.
// Raw IDs (especially guest IDs) never appear in object keys.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
}
