package modules

import (
	"context"
	"fmt"

	"greenledger.io/greenledger/internal/api/handlers"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/service"
	"greenledger.io/greenledger/internal/storage"
)

// DocumentsModule wires encrypted evidence storage.
type DocumentsModule struct {
	documents *service.DocumentService
}

// NewDocumentsModule creates the document service over the shared repositories.
func NewDocumentsModule(infra *Infrastructure) (*DocumentsModule, error) {
	if infra == nil || infra.Config == nil {
		return nil, fmt.Errorf("documents module: infrastructure is not initialized")
	}
	if infra.Documents == nil || infra.AuditLogger == nil {
		return nil, fmt.Errorf("documents module: repositories are not initialized")
	}

	cfg := infra.Config
	svc := service.NewDocumentService(
		infra.Documents,
		storage.NewFileStore(cfg.Storage.DocumentsDir),
		security.NewEngine(cfg.Security.MasterKey),
		infra.AuditLogger,
	).WithMaxSize(cfg.Storage.MaxUploadSize)

	return &DocumentsModule{documents: svc}, nil
}

func (m *DocumentsModule) Name() string { return "documents" }

func (m *DocumentsModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Documents = m.documents
}

func (m *DocumentsModule) Start(context.Context) error { return nil }

func (m *DocumentsModule) Shutdown(context.Context) error { return nil }
