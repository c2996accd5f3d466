package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the probe response body.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// GetLiveness handles GET /health/live, the process liveness probe.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: healthOK})
}

// GetReadiness handles GET /health/ready, the readiness probe.
// The catalog must have been loaded; the database, when configured, must answer.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if loaded, ok := s.catalog.(interface{ Loaded() bool }); ok && !loaded.Loaded() {
		checks["catalog"] = "loading"
		allHealthy = false
	} else if s.catalog.Status().Missing {
		// An absent file is served as an empty catalog; report it without failing.
		checks["catalog"] = "missing"
	} else {
		checks["catalog"] = healthOK
	}

	if s.database != nil {
		if err := s.database.Ping(c.Request.Context()); err != nil {
			checks["database"] = "error"
			allHealthy = false
		} else {
			checks["database"] = healthOK
		}
	}

	status := healthOK
	httpStatus := http.StatusOK
	if !allHealthy {
		status = healthDegraded
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, Health{
		Status: status,
		Checks: checks,
	})
}
