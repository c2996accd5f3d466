// Package app is the composition root. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/api/handlers"
	"greenledger.io/greenledger/internal/app/modules"
	"greenledger.io/greenledger/internal/config"
	"greenledger.io/greenledger/internal/infrastructure"
	"greenledger.io/greenledger/internal/pkg/worker"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.Database
	Pools   *worker.Pools
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	catalogModule, err := modules.NewCatalogModule(infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init catalog module: %w", err)
	}
	documentsModule, err := modules.NewDocumentsModule(infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init documents module: %w", err)
	}

	allModules := []modules.Module{
		catalogModule,
		documentsModule,
		modules.NewGovernanceModule(infra),
	}
	server := handlers.NewServer(modules.NewServerDeps(allModules))

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, modules.NewJWTConfig(cfg)),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
	}, nil
}
