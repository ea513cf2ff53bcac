package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Legacy is the unsalted hex SHA-256 digest used by earlier deployments.
// It is deterministic, so equal digests mean equal passwords; that is also
// why it is only used to verify existing rows.
type Legacy struct{}

func (Legacy) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

func (l Legacy) Verify(plain, stored string) (bool, error) {
	want, _ := l.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(want), []byte(stored)) == 1, nil
}

func isLegacy(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}
