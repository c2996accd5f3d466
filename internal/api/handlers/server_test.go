package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/governance/audit"
	"greenledger.io/greenledger/internal/pkg/logger"
	"greenledger.io/greenledger/internal/repository"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/service"
	"greenledger.io/greenledger/internal/storage"
	"greenledger.io/greenledger/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

const (
	headerTestUser = "X-Test-User"
	headerTestOrg  = "X-Test-Org"
	headerTestRole = "X-Test-Role"
)

// testAuth trusts identity headers so tests can act as any role.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _ := strconv.ParseInt(c.GetHeader(headerTestOrg), 10, 64)
		role := domain.Role(c.GetHeader(headerTestRole))
		actor := domain.Actor{UserID: c.GetHeader(headerTestUser), OrganizationID: orgID, Role: role}
		c.Set("permissions", domain.PermissionsFor(role))
		c.Request = c.Request.WithContext(middleware.SetActorContext(c.Request.Context(), actor))
		c.Next()
	}
}

type testEnv struct {
	router  *gin.Engine
	catalog *service.FactorCatalog
	docs    *repository.MemoryDocumentRepository
	audits  *repository.MemoryAuditRepository
	path    string
	dir     string
}

func catalogRows() []testutil.CatalogRow {
	rows := testutil.TransportRows()
	return append(rows, testutil.CatalogRow{
		RowType:  "Élément",
		ID:       "28003",
		NameFR:   "Transport fluvial",
		NameEN:   "Inland waterway freight",
		Total:    "0,031",
		Category: "Transport de marchandises > Fluvial",
		Program:  "Base Carbone",
		Status:   "En cours de validation",
	})
}

func newTestEnv(t *testing.T, masterKey string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	path := testutil.WriteCatalog(t, dir, "base.csv", catalogRows())
	catalog := service.NewFactorCatalog(path)

	docs := repository.NewMemoryDocumentRepository()
	audits := repository.NewMemoryAuditRepository()
	auditLogger := audit.NewLogger(audits)
	documents := service.NewDocumentService(docs, storage.NewFileStore(t.TempDir()),
		security.NewEngine(masterKey), auditLogger)

	srv := NewServer(ServerDeps{
		Catalog:   catalog,
		Reloader:  catalog,
		Documents: documents,
		Audit:     auditLogger,
		AuditLog:  audits,
	})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.ErrorHandler())
	RegisterHandlers(router.Group("/api/v1"), srv, testAuth())

	return &testEnv{router: router, catalog: catalog, docs: docs, audits: audits, path: path, dir: dir}
}

func (e *testEnv) do(t *testing.T, req *http.Request, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set(headerTestUser, actor.UserID)
	req.Header.Set(headerTestOrg, strconv.FormatInt(actor.OrganizationID, 10))
	req.Header.Set(headerTestRole, string(actor.Role))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, target string, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil), actor)
}

func multipartUpload(t *testing.T, filename, contentType string, body []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(body)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func mustDecodeJSON(t *testing.T, payload []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(payload, out); err != nil {
		t.Fatalf("decode json: %v; payload=%s", err, string(payload))
	}
}

var (
	worker1  = domain.Actor{UserID: "worker-1", OrganizationID: 1, Role: domain.RoleWorker}
	worker2  = domain.Actor{UserID: "worker-2", OrganizationID: 2, Role: domain.RoleWorker}
	auditor  = domain.Actor{UserID: "auditor-1", OrganizationID: 5, Role: domain.RoleAuditor}
	viewer   = domain.Actor{UserID: "viewer-1", OrganizationID: 1, Role: domain.RoleViewer}
	platform = domain.Actor{UserID: "root", Role: domain.RolePlatformAdmin}
	orgAdmin = domain.Actor{UserID: "admin-1", OrganizationID: 1, Role: domain.RoleOrgAdmin}
)

func newRecorderFor(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}
