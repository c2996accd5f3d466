package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/governance/audit"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/repository"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/storage"
)

var (
	ErrDocumentAccessDenied = errors.New("document access denied")
	ErrDocumentIntegrity    = errors.New("document checksum mismatch")
	ErrEmptyDocument        = errors.New("document is empty")
	ErrDocumentTooLarge     = errors.New("document exceeds size limit")
)

// DefaultMaxDocumentSize bounds uploads; documents are encrypted in memory.
const DefaultMaxDocumentSize int64 = 32 << 20

// DocumentCipher encrypts document bodies per organization.
// *security.Engine implements it.
type DocumentCipher interface {
	Encrypt(plaintext []byte, tenantID int64) ([]byte, error)
	Decrypt(blob []byte, tenantID int64) ([]byte, error)
	Hash(data []byte) string
}

// UploadInput is a document submitted for storage.
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	ActivityID  *int64
}

// DocumentService stores evidence files encrypted with their organization key.
type DocumentService struct {
	docs    repository.DocumentRepository
	blobs   storage.BlobStore
	cipher  DocumentCipher
	audit   *audit.Logger
	now     func() time.Time
	maxSize int64
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(docs repository.DocumentRepository, blobs storage.BlobStore, cipher DocumentCipher, auditLogger *audit.Logger) *DocumentService {
	return &DocumentService{
		docs:    docs,
		blobs:   blobs,
		cipher:  cipher,
		audit:   auditLogger,
		now:     time.Now,
		maxSize: DefaultMaxDocumentSize,
	}
}

// WithMaxSize overrides the upload size limit. Non-positive values are ignored.
func (s *DocumentService) WithMaxSize(n int64) *DocumentService {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// MaxSize returns the upload size limit in bytes.
func (s *DocumentService) MaxSize() int64 {
	return s.maxSize
}

// Upload hashes, encrypts and stores a document for the actor's organization.
func (s *DocumentService) Upload(ctx context.Context, actor domain.Actor, in UploadInput) (*domain.Document, error) {
	if !CanUploadDocument(actor) {
		return nil, ErrDocumentAccessDenied
	}
	if len(in.Data) == 0 {
		return nil, ErrEmptyDocument
	}
	if int64(len(in.Data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(in.Data))
	}

	orgID := actor.OrganizationID
	checksum := s.cipher.Hash(in.Data)
	blob, err := s.cipher.Encrypt(in.Data, orgID)
	if err != nil {
		return nil, fmt.Errorf("encrypt document: %w", err)
	}

	key, err := s.blobs.Put(ctx, orgID, blob)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	doc := &domain.Document{
		ID:             uuid.NewString(),
		Filename:       sanitizeFilename(in.Filename),
		StoragePath:    key,
		Encrypted:      true,
		HashChecksum:   checksum,
		ContentType:    contentTypeOrDefault(in.ContentType),
		FileSize:       int64(len(in.Data)),
		UploadedByID:   actor.UserID,
		OrganizationID: orgID,
		ActivityID:     in.ActivityID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("save document: %w", err)
	}

	// An unaudited upload is undone so a retry does not leave a duplicate.
	if err := s.audit.LogDocumentUpload(ctx, actor, doc); err != nil {
		if delErr := s.docs.Delete(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			logger.Error("Unaudited document metadata left after audit failure",
				zap.String("document_id", doc.ID),
				zap.Error(delErr),
			)
		}
		s.discardBlob(ctx, key)
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.Warn("Orphaned document blob after failed upload",
			zap.String("storage_path", key),
			zap.Error(err),
		)
	}
}

// Download decrypts a document after checking the actor may read it.
// The cleartext is verified against the checksum taken at upload.
func (s *DocumentService) Download(ctx context.Context, actor domain.Actor, docID string) (*domain.Document, []byte, error) {
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	if !CanDecryptDocument(actor, doc) {
		if err := s.audit.LogDocumentDenied(ctx, actor, doc); err != nil {
			logger.Warn("Denied document access not audited",
				zap.String("document_id", doc.ID),
				zap.Error(err),
			)
		}
		return nil, nil, ErrDocumentAccessDenied
	}

	blob, err := s.blobs.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read document: %w", err)
	}

	data, err := s.cipher.Decrypt(blob, doc.OrganizationID)
	if err != nil {
		logger.Error("Document decryption failed",
			zap.String("document_id", doc.ID),
			zap.Int64("organization_id", doc.OrganizationID),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("decrypt document: %w", err)
	}
	if !security.VerifyHash(data, doc.HashChecksum) {
		logger.Error("Document checksum mismatch",
			zap.String("document_id", doc.ID),
			zap.Int64("organization_id", doc.OrganizationID),
		)
		return nil, nil, ErrDocumentIntegrity
	}

	if err := s.audit.LogDocumentAccess(ctx, actor, doc); err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// List returns the metadata of the actor's organization documents, newest first.
func (s *DocumentService) List(ctx context.Context, actor domain.Actor) ([]*domain.Document, error) {
	if actor.OrganizationID == 0 {
		return []*domain.Document{}, nil
	}
	return s.docs.ListByOrganization(ctx, actor.OrganizationID)
}

func contentTypeOrDefault(ct string) string {
	if ct = strings.TrimSpace(ct); ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// sanitizeFilename keeps the base name and drops characters that are
// troublesome in paths and Content-Disposition headers.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case r == '"' || r == '/' || r == ' ':
			return '_'
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "_" {
		return "document"
	}
	return name
}
