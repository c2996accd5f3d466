package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"greenledger.io/greenledger/internal/pkg/logger"
)

// Start starts module background work such as the catalog warm-up.
func (a *Application) Start(ctx context.Context) error {
	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			return fmt.Errorf("start %s module: %w", mod.Name(), err)
		}
	}
	return nil
}

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown() {
	shutdownCtx := context.Background()

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
