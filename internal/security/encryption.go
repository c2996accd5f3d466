package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/pkg/logger"
)

// Blob layout: nonce ‖ tag ‖ ciphertext.
const (
	NonceSize = 12
	TagSize   = 16
	// Overhead is the number of bytes a blob adds to its plaintext.
	Overhead = NonceSize + TagSize
)

var (
	// ErrInvalidBlob is returned for a blob too short to hold a nonce and tag.
	ErrInvalidBlob = errors.New("invalid encrypted blob")
	// ErrAuthenticationFailed is returned when the tag does not verify: the
	// blob was altered or was encrypted for another organization.
	ErrAuthenticationFailed = errors.New("encrypted blob failed authentication")
)

// Engine encrypts and decrypts organization documents.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	masterKey func() string
	random    io.Reader
}

// NewEngine returns an Engine using a fixed master key.
// An empty key is accepted; every call then fails with ErrMasterKeyMissing.
func NewEngine(masterKey string) *Engine {
	return &Engine{
		masterKey: func() string { return masterKey },
		random:    rand.Reader,
	}
}

// NewEngineFromEnv returns an Engine reading MASTER_KEY on every call.
func NewEngineFromEnv() *Engine {
	return &Engine{
		masterKey: func() string { return os.Getenv(MasterKeyEnv) },
		random:    rand.Reader,
	}
}

// Configured reports whether a master key is available.
func (e *Engine) Configured() bool {
	return e.masterKey() != ""
}

func (e *Engine) aead(tenantID int64) (cipher.AEAD, error) {
	key, err := DeriveKey(e.masterKey(), tenantID)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext for tenantID under a fresh random nonce.
// The result is len(plaintext)+Overhead bytes.
func (e *Engine) Encrypt(plaintext []byte, tenantID int64) ([]byte, error) {
	gcm, err := e.aead(tenantID)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, Overhead+len(plaintext))
	nonce := blob[:NonceSize]
	if _, err := io.ReadFull(e.random, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	// Seal emits ciphertext ‖ tag; the stored layout puts the tag first.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ctLen := len(sealed) - TagSize
	copy(blob[NonceSize:Overhead], sealed[ctLen:])
	copy(blob[Overhead:], sealed[:ctLen])
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt for the same tenantID.
// It never returns unauthenticated bytes.
func (e *Engine) Decrypt(blob []byte, tenantID int64) ([]byte, error) {
	if len(blob) < Overhead {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidBlob, len(blob), Overhead)
	}
	gcm, err := e.aead(tenantID)
	if err != nil {
		return nil, err
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize:Overhead]
	ciphertext := blob[Overhead:]

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		logger.Warn("Document blob failed authentication",
			zap.Int64("organization_id", tenantID),
			zap.Int("blob_size", len(blob)),
		)
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Hash returns the hex SHA-256 digest of the original document bytes.
func (e *Engine) Hash(data []byte) string {
	return Hash(data)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether data hashes to the hex digest want.
func VerifyHash(data []byte, want string) bool {
	got := Hash(data)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
