// Package handlers implements the GreenLedger HTTP API.
//
// Handlers are thin: they parse the request, call a service, and map the
// result or error to JSON. Route registration lives in internal/app.
//
// Import Path: greenledger.io/greenledger/internal/api/handlers
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/governance/audit"
	"greenledger.io/greenledger/internal/repository"
	"greenledger.io/greenledger/internal/service"
)

// CatalogReloader re-reads the emission factor file.
type CatalogReloader interface {
	Reload(ctx context.Context) (service.CatalogStatus, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements all API handlers.
type Server struct {
	catalog   service.FactorLookup
	reloader  CatalogReloader
	documents *service.DocumentService
	audit     *audit.Logger
	auditLog  repository.AuditRepository
	database  Pinger
}

// ServerDeps holds all dependencies for creating a Server.
// Manual DI, no Wire/Dig.
type ServerDeps struct {
	Catalog   service.FactorLookup
	Reloader  CatalogReloader
	Documents *service.DocumentService
	Audit     *audit.Logger
	AuditLog  repository.AuditRepository
	Database  Pinger // Optional: nil when repositories are in memory
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		catalog:   deps.Catalog,
		reloader:  deps.Reloader,
		documents: deps.Documents,
		audit:     deps.Audit,
		auditLog:  deps.AuditLog,
		database:  deps.Database,
	}
}

// actorFromCtx returns the authenticated actor. Routes behind JWTAuth always
// carry one; the anonymous actor has no role and no organization.
func actorFromCtx(c *gin.Context) domain.Actor {
	if actor, ok := middleware.GetActor(c.Request.Context()); ok {
		return actor
	}
	return domain.Actor{UserID: "anonymous"}
}
