package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/app/modules"
	"greenledger.io/greenledger/internal/config"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, AllowCredentials: true},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Catalog: config.CatalogConfig{
			Path: testutil.WriteCatalog(t, dir, "base.csv", testutil.TransportRows()),
		},
		Security: config.SecurityConfig{
			MasterKey:     "bootstrap-test-master-key",
			SessionSecret: "0123456789abcdef0123456789abcdef",
			TokenTTL:      time.Hour,
		},
		Storage: config.StorageConfig{
			DocumentsDir:  filepath.Join(dir, "uploads"),
			MaxUploadSize: 1 << 20,
		},
		Worker: config.WorkerConfig{GeneralPoolSize: 4, SearchPoolSize: 2},
	}
}

func TestBootstrap_NoDB(t *testing.T) {
	// A configured but unreachable database fails bootstrap.
	cfg := testConfig(t)
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     65432, // Non-existent port
		User:     "test",
		Password: "test",
		Database: "test",
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app, err := Bootstrap(ctx, cfg)
	require.Error(t, err, "Bootstrap should fail without database")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestBootstrap_InMemoryServesAPI(t *testing.T) {
	cfg := testConfig(t)
	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	assert.Nil(t, app.DB)
	require.Len(t, app.Modules, 3)
	require.NoError(t, app.Start(context.Background()))

	token, _, err := middleware.GenerateToken(modules.NewJWTConfig(cfg), middleware.Identity{
		UserID:         "worker-1",
		OrganizationID: 1,
		Role:           domain.RoleWorker,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		return w.Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/factors/search?q=transport", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "factors require a token")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/factors/search?q=transport", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var hits []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hits))
	require.Len(t, hits, 2)
	assert.Equal(t, "28002", hits[0].ID)
}

func TestBootstrap_CORSPreflight(t *testing.T) {
	app, err := Bootstrap(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/factors/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_RouterRoutes(t *testing.T) {
	// Test that an Application struct can be created with a valid config.
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "error", Format: "json"},
	}

	app := &Application{
		Config: cfg,
	}

	assert.NotNil(t, app, "Application should be non-nil")
	assert.Equal(t, 8080, app.Config.Server.Port, "Port should be set correctly")
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	// Shutdown on empty application should not panic.
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown()
	}, "Shutdown on empty Application should not panic")
}
