package modules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/api/handlers"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/search"
	"greenledger.io/greenledger/internal/service"
)

// CatalogModule owns the emission factor catalog.
type CatalogModule struct {
	infra   *Infrastructure
	catalog *service.FactorCatalog
}

// NewCatalogModule creates the catalog. The file is read on first use or
// when Start warms it.
func NewCatalogModule(infra *Infrastructure) (*CatalogModule, error) {
	if infra == nil || infra.Config == nil {
		return nil, fmt.Errorf("catalog module: infrastructure is not initialized")
	}

	var opts []search.Option
	if threshold := infra.Config.Catalog.ParallelThreshold; threshold > 0 && infra.Pools != nil {
		opts = append(opts, search.WithExecutor(infra.Pools.Search, threshold))
	}
	return &CatalogModule{
		infra:   infra,
		catalog: service.NewFactorCatalog(infra.Config.Catalog.Path, opts...),
	}, nil
}

func (m *CatalogModule) Name() string { return "catalog" }

// Catalog returns the module's catalog.
func (m *CatalogModule) Catalog() *service.FactorCatalog { return m.catalog }

func (m *CatalogModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Catalog = m.catalog
	deps.Reloader = m.catalog
}

// Start loads the catalog in the background so the first search is not slowed
// by parsing. Readiness reports "loading" until it completes.
func (m *CatalogModule) Start(context.Context) error {
	if m.infra.Pools == nil {
		return nil
	}
	return m.infra.Pools.SubmitDetached("general", func(ctx context.Context) {
		m.catalog.Warm(ctx)
		logger.Named("catalog").Debug("Catalog warm-up finished",
			zap.String("path", m.catalog.Path()),
			zap.Bool("loaded", m.catalog.Loaded()),
		)
	})
}

func (m *CatalogModule) Shutdown(context.Context) error { return nil }
