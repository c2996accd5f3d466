// Package security provides per-organization document encryption.
//
// Each organization gets its own AES-256 key derived from the master key, so
// a blob encrypted for one organization never authenticates under another.
// Keys are recomputed on every call and never stored.
//
// Import Path: greenledger.io/greenledger/internal/security
package security

import (
	"crypto/sha256"
	"errors"
	"strconv"
)

// MasterKeyEnv is the environment variable holding the master key.
const MasterKeyEnv = "MASTER_KEY"

// KeySize is the derived key length in bytes (AES-256).
const KeySize = sha256.Size

// ErrMasterKeyMissing is returned when no master key is configured.
// There is no fallback key.
var ErrMasterKeyMissing = errors.New("master key is not configured")

// DeriveKey returns SHA-256("<masterKey>:<tenantID>").
// The result is a pure function of its inputs: changing the master key makes
// every previously encrypted blob undecryptable.
func DeriveKey(masterKey string, tenantID int64) ([KeySize]byte, error) {
	if masterKey == "" {
		return [KeySize]byte{}, ErrMasterKeyMissing
	}
	material := make([]byte, 0, len(masterKey)+21)
	material = append(material, masterKey...)
	material = append(material, ':')
	material = strconv.AppendInt(material, tenantID, 10)
	return sha256.Sum256(material), nil
}
