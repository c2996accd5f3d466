package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenledger.io/greenledger/internal/domain"
)

const pgUniqueViolation = "23505"

const (
	createDocumentsTableSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	encrypted BOOLEAN NOT NULL DEFAULT TRUE,
	hash_checksum TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL,
	uploaded_by_id TEXT NOT NULL,
	organization_id BIGINT NOT NULL,
	activity_id BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	createDocumentsOrgIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_documents_organization_created
ON documents (organization_id, created_at DESC);`
	insertDocumentSQL = `
INSERT INTO documents (id, filename, storage_path, encrypted, hash_checksum, content_type,
	file_size, uploaded_by_id, organization_id, activity_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`
	selectDocumentColumns = `
SELECT id, filename, storage_path, encrypted, hash_checksum, content_type,
	file_size, uploaded_by_id, organization_id, activity_id, created_at
FROM documents`

	createAuditTableSQL = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor_id TEXT NOT NULL,
	organization_id BIGINT NOT NULL,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	createAuditOrgIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_audit_logs_organization_created
ON audit_logs (organization_id, created_at DESC);`
	insertAuditSQL = `
INSERT INTO audit_logs (id, actor_id, organization_id, action, entity_type, entity_id, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	listAuditSQL = `
SELECT id, actor_id, organization_id, action, entity_type, entity_id, details, created_at
FROM audit_logs
WHERE organization_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
)

// schema creates tables once per store.
type schema struct {
	once       sync.Once
	err        error
	statements []string
	name       string
}

func (s *schema) ensure(pool *pgxpool.Pool) error {
	s.once.Do(func() {
		if pool == nil {
			s.err = ErrStoreUnavailable
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, stmt := range s.statements {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				s.err = fmt.Errorf("create %s schema: %w", s.name, err)
				return
			}
		}
	})
	return s.err
}

// PostgresDocumentRepository persists document metadata to PostgreSQL.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	schema schema
}

// NewPostgresDocumentRepository creates a document repository backed by PostgreSQL.
// The table is created on first use.
func NewPostgresDocumentRepository(pool *pgxpool.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{
		pool: pool,
		schema: schema{
			name:       "documents",
			statements: []string{createDocumentsTableSQL, createDocumentsOrgIndexSQL},
		},
	}
}

// Create inserts doc.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := r.schema.ensure(r.pool); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, insertDocumentSQL,
		doc.ID, doc.Filename, doc.StoragePath, doc.Encrypted, doc.HashChecksum, doc.ContentType,
		doc.FileSize, doc.UploadedByID, doc.OrganizationID, doc.ActivityID, doc.CreatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.ID)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns the document with id.
func (r *PostgresDocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	if err := r.schema.ensure(r.pool); err != nil {
		return nil, err
	}
	doc, err := scanDocument(r.pool.QueryRow(ctx, selectDocumentColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes the document with id.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	if err := r.schema.ensure(r.pool); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ListByOrganization returns an organization's documents, newest first.
func (r *PostgresDocumentRepository) ListByOrganization(ctx context.Context, orgID int64) ([]*domain.Document, error) {
	if err := r.schema.ensure(r.pool); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		selectDocumentColumns+` WHERE organization_id = $1 ORDER BY created_at DESC, id DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.StoragePath, &doc.Encrypted, &doc.HashChecksum, &doc.ContentType,
		&doc.FileSize, &doc.UploadedByID, &doc.OrganizationID, &doc.ActivityID, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// PostgresAuditRepository persists audit entries to PostgreSQL.
type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	schema schema
}

// NewPostgresAuditRepository creates an audit repository backed by PostgreSQL.
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{
		pool: pool,
		schema: schema{
			name:       "audit_logs",
			statements: []string{createAuditTableSQL, createAuditOrgIndexSQL},
		},
	}
}

// Append inserts entry.
func (r *PostgresAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if err := r.schema.ensure(r.pool); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, insertAuditSQL,
		entry.ID, entry.ActorID, entry.OrganizationID, entry.Action,
		entry.EntityType, entry.EntityID, entry.Details, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByOrganization returns up to limit entries, newest first.
func (r *PostgresAuditRepository) ListByOrganization(ctx context.Context, orgID int64, limit int) ([]*domain.AuditEntry, error) {
	if err := r.schema.ensure(r.pool); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	rows, err := r.pool.Query(ctx, listAuditSQL, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.OrganizationID, &e.Action,
			&e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}
