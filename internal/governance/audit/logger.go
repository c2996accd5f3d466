// Package audit implements the audit logging service.
//
// Audit logs are append-only compliance records. There is no update or delete.
//
// Import Path: greenledger.io/greenledger/internal/governance/audit
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/repository"
)

// Audited actions.
const (
	ActionUploadDocument       = "UPLOAD_DOCUMENT"
	ActionAccessDocument       = "ACCESS_DOCUMENT"
	ActionAccessDeniedDocument = "ACCESS_DENIED_DOCUMENT"
	ActionCatalogReload        = "CATALOG_RELOAD"
)

// Entity types.
const (
	EntityDocument = "Document"
	EntityCatalog  = "EmissionFactorCatalog"
)

// Logger writes audit records to a repository.
type Logger struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// NewLogger creates a new audit Logger.
func NewLogger(repo repository.AuditRepository) *Logger {
	return &Logger{repo: repo, now: time.Now}
}

// LogAction records an auditable action.
func (l *Logger) LogAction(ctx context.Context, actor domain.Actor, orgID int64, action, entityType, entityID, details string) error {
	entry := &domain.AuditEntry{
		ID:             generateAuditID(),
		ActorID:        actor.UserID,
		OrganizationID: orgID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Details:        details,
		CreatedAt:      l.now().UTC(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		logger.Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// LogDocumentUpload records a stored evidence file.
func (l *Logger) LogDocumentUpload(ctx context.Context, actor domain.Actor, doc *domain.Document) error {
	return l.LogAction(ctx, actor, doc.OrganizationID, ActionUploadDocument, EntityDocument, doc.ID,
		fmt.Sprintf("User uploaded document %s", doc.Filename))
}

// LogDocumentAccess records a successful decryption.
func (l *Logger) LogDocumentAccess(ctx context.Context, actor domain.Actor, doc *domain.Document) error {
	return l.LogAction(ctx, actor, doc.OrganizationID, ActionAccessDocument, EntityDocument, doc.ID,
		fmt.Sprintf("User downloaded document %s", doc.Filename))
}

// LogDocumentDenied records a refused decryption attempt.
func (l *Logger) LogDocumentDenied(ctx context.Context, actor domain.Actor, doc *domain.Document) error {
	return l.LogAction(ctx, actor, doc.OrganizationID, ActionAccessDeniedDocument, EntityDocument, doc.ID,
		"User attempted to access document without permission.")
}

// LogCatalogReload records an operator-triggered catalog reload.
func (l *Logger) LogCatalogReload(ctx context.Context, actor domain.Actor, factors int) error {
	return l.LogAction(ctx, actor, actor.OrganizationID, ActionCatalogReload, EntityCatalog, "ademe",
		fmt.Sprintf("Catalog reloaded with %d factors", factors))
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("audit-%s", id.String())
}
