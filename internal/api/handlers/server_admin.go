package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "greenledger.io/greenledger/internal/pkg/errors"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/repository"
)

// ReloadCatalog handles POST /api/v1/admin/factors/reload.
// The previous catalog keeps serving if the new file cannot be read.
func (s *Server) ReloadCatalog(c *gin.Context) {
	actor := actorFromCtx(c)

	status, err := s.reloader.Reload(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeCatalogReloadErr,
			"catalog reload failed; previous catalog still served", http.StatusInternalServerError))
		return
	}

	if err := s.audit.LogCatalogReload(c.Request.Context(), actor, status.Total); err != nil {
		logger.Warn("Catalog reload not audited", zap.String("actor", actor.UserID), zap.Error(err))
	}
	c.JSON(http.StatusOK, status)
}

// ListAuditLogs handles GET /api/v1/audit?limit=.
// Entries are scoped to the caller's organization, newest first.
func (s *Server) ListAuditLogs(c *gin.Context) {
	actor := actorFromCtx(c)

	limit := repository.DefaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeQueryInvalid, "limit must be a positive integer"))
			return
		}
		limit = min(n, 1000)
	}

	entries, err := s.auditLog.ListByOrganization(c.Request.Context(), actor.OrganizationID, limit)
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, "AUDIT_LIST_FAILED", "failed to list audit logs", http.StatusInternalServerError))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "count": len(entries)})
}
