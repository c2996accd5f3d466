package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/api/handlers"
	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/config"
)

// defaultAllowedOrigins are the local frontend dev servers.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		cors.New(buildCORSConfig(cfg)),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	handlers.RegisterHandlers(router.Group("/api/v1"), server, middleware.JWTAuth(jwtCfg))
	return router
}

// buildCORSConfig allows the configured origins. A "*" entry is honored only
// with unsafe_allow_all_origins, and then credentials are never allowed.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	// cors.New rejects an empty allowlist.
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}
