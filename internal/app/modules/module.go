// Package modules contains domain-oriented dependency modules for the
// composition root.
//
// Import Path: greenledger.io/greenledger/internal/app/modules
package modules

import (
	"context"

	"greenledger.io/greenledger/internal/api/handlers"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging/debugging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// Start launches module background work. It must not block.
	Start(context.Context) error

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

// ServerDepsContributor is the subset of Module used when building server deps.
type ServerDepsContributor interface {
	ContributeServerDeps(*handlers.ServerDeps)
}
