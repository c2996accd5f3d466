package handlers

import (
	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/logger"
)

// RegisterHandlers mounts the API on router. Health probes are public; every
// other route runs behind auth, which must populate the request actor.
func RegisterHandlers(router gin.IRouter, s *Server, auth gin.HandlerFunc) {
	health := router.Group("/health")
	health.GET("/live", s.GetLiveness)
	health.GET("/ready", s.GetReadiness)

	api := router.Group("/", auth)

	factors := api.Group("/factors", middleware.RequirePermission(domain.PermissionFactorsRead))
	factors.GET("/search", s.SearchFactors)
	factors.GET("/categories", s.ListFactorCategories)
	factors.GET("/sources", s.ListFactorSources)
	factors.GET("/by-category", s.ListFactorsByCategory)
	factors.GET("/by-source", s.ListFactorsBySource)
	factors.GET("/status", s.GetCatalogStatus)
	factors.GET("/:id", func(c *gin.Context) { s.GetFactor(c, c.Param("id")) })

	documents := api.Group("/documents")
	documents.POST("", middleware.RequirePermission(domain.PermissionDocumentsWrite), s.UploadDocument)
	documents.GET("", middleware.RequirePermission(domain.PermissionDocumentsRead), s.ListDocuments)
	documents.GET("/:id/download", middleware.RequirePermission(domain.PermissionDocumentsRead),
		func(c *gin.Context) { s.DownloadDocument(c, c.Param("id")) })

	api.GET("/audit",
		middleware.RequirePermission(domain.PermissionAuditRead),
		middleware.RequireOrganization(),
		s.ListAuditLogs,
	)

	admin := api.Group("/admin")
	admin.POST("/factors/reload", middleware.RequirePermission(domain.PermissionCatalogReload), s.ReloadCatalog)

	logLevel := gin.WrapH(logger.HTTPHandler())
	admin.GET("/log/level", middleware.RequirePermission(domain.PermissionPlatformAdmin), logLevel)
	admin.PUT("/log/level", middleware.RequirePermission(domain.PermissionPlatformAdmin), logLevel)
}
