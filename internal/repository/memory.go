package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"greenledger.io/greenledger/internal/domain"
)

// MemoryDocumentRepository keeps documents in process memory.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewMemoryDocumentRepository creates an empty in-memory document store.
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[string]domain.Document)}
}

// Create stores a copy of doc.
func (r *MemoryDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.ID)
	}
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Get returns a copy of the document with id.
func (r *MemoryDocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	out := cloneDocument(&doc)
	return &out, nil
}

// Delete removes the document with id.
func (r *MemoryDocumentRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

// ListByOrganization returns an organization's documents, newest first.
func (r *MemoryDocumentRepository) ListByOrganization(ctx context.Context, orgID int64) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Document, 0)
	for _, doc := range r.docs {
		if doc.OrganizationID != orgID {
			continue
		}
		d := cloneDocument(&doc)
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneDocument(doc *domain.Document) domain.Document {
	out := *doc
	if doc.ActivityID != nil {
		id := *doc.ActivityID
		out.ActivityID = &id
	}
	return out
}

// MemoryAuditRepository keeps audit entries in process memory.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewMemoryAuditRepository creates an empty in-memory audit store.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

// Append records a copy of entry.
func (r *MemoryAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// ListByOrganization returns up to limit entries, newest first.
func (r *MemoryAuditRepository) ListByOrganization(ctx context.Context, orgID int64, limit int) ([]*domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.AuditEntry, 0)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].OrganizationID != orgID {
			continue
		}
		e := r.entries[i]
		out = append(out, &e)
	}
	return out, nil
}
