package modules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/config"
	"greenledger.io/greenledger/internal/governance/audit"
	"greenledger.io/greenledger/internal/infrastructure"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/pkg/worker"
	"greenledger.io/greenledger/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config      *config.Config
	DB          *infrastructure.Database // nil: in-memory repositories
	Pools       *worker.Pools
	Documents   repository.DocumentRepository
	AuditLog    repository.AuditRepository
	AuditLogger *audit.Logger
}

// NewInfrastructure initializes the database (when configured), worker pools
// and repositories.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	infra := &Infrastructure{Config: cfg}
	if cfg.Database.Enabled() {
		db, err := infrastructure.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		infra.DB = db
		infra.Documents = repository.NewPostgresDocumentRepository(db.Pool)
		infra.AuditLog = repository.NewPostgresAuditRepository(db.Pool)
	} else {
		logger.Warn("No database configured; documents and audit logs are kept in memory")
		infra.Documents = repository.NewMemoryDocumentRepository()
		infra.AuditLog = repository.NewMemoryAuditRepository()
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		SearchPoolSize:  cfg.Worker.SearchPoolSize,
	})
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}
	infra.Pools = pools
	infra.AuditLogger = audit.NewLogger(infra.AuditLog)

	logger.Info("Infrastructure initialized",
		zap.Bool("database", infra.DB != nil),
		zap.Int("general_pool", cfg.Worker.GeneralPoolSize),
		zap.Int("search_pool", cfg.Worker.SearchPoolSize),
	)
	return infra, nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
