package modules

import (
	"context"

	"greenledger.io/greenledger/internal/api/handlers"
)

// GovernanceModule exposes the audit trail and database health to the server.
type GovernanceModule struct {
	infra *Infrastructure
}

func NewGovernanceModule(infra *Infrastructure) *GovernanceModule {
	return &GovernanceModule{infra: infra}
}

func (m *GovernanceModule) Name() string { return "governance" }

func (m *GovernanceModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil || m.infra == nil {
		return
	}
	deps.Audit = m.infra.AuditLogger
	deps.AuditLog = m.infra.AuditLog
	if m.infra.DB != nil {
		deps.Database = m.infra.DB
	}
}

func (m *GovernanceModule) Start(context.Context) error { return nil }

func (m *GovernanceModule) Shutdown(context.Context) error { return nil }
