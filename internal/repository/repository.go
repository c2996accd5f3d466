// Package repository persists document metadata and audit records.
//
// Two implementations back each interface: PostgreSQL through pgxpool for
// deployments with a database, and an in-memory store for single-process
// runs and tests.
//
// Import Path: greenledger.io/greenledger/internal/repository
package repository

import (
	"context"
	"errors"

	"greenledger.io/greenledger/internal/domain"
)

var (
	// ErrDocumentNotFound is returned when no document has the requested id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDuplicateDocument is returned when a document id is reused.
	ErrDuplicateDocument = errors.New("document already exists")
	// ErrStoreUnavailable is returned by a PostgreSQL store built without a pool.
	ErrStoreUnavailable = errors.New("repository store is unavailable")
)

// DefaultAuditLimit bounds audit listings when the caller passes no limit.
const DefaultAuditLimit = 100

// DocumentRepository stores document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	// Delete removes a document's metadata. A missing id is ErrDocumentNotFound.
	Delete(ctx context.Context, id string) error
	// ListByOrganization returns an organization's documents, newest first.
	ListByOrganization(ctx context.Context, orgID int64) ([]*domain.Document, error)
}

// AuditRepository stores append-only audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	// ListByOrganization returns up to limit entries, newest first.
	ListByOrganization(ctx context.Context, orgID int64, limit int) ([]*domain.AuditEntry, error)
}
