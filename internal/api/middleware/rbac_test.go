package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/domain"
)

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)

	run := func(perms interface{}, required string) (int, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if perms != nil {
			c.Set("permissions", perms)
		}

		called := false
		RequirePermission(required)(c)
		if !c.IsAborted() {
			called = true
		}
		return w.Code, called
	}

	t.Run("platform admin bypasses required permission", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{domain.PermissionPlatformAdmin}, domain.PermissionCatalogReload)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		if !called {
			t.Fatal("middleware unexpectedly aborted for platform:admin")
		}
	})

	t.Run("specific permission allowed", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{domain.PermissionFactorsRead}, domain.PermissionFactorsRead)
		if status != http.StatusOK {
			t.Fatalf("status = %d, want %d", status, http.StatusOK)
		}
		if !called {
			t.Fatal("middleware unexpectedly aborted with matching permission")
		}
	})

	t.Run("missing permission forbidden", func(t *testing.T) {
		t.Parallel()
		status, called := run([]string{domain.PermissionFactorsRead}, domain.PermissionDocumentsWrite)
		if status != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", status, http.StatusForbidden)
		}
		if called {
			t.Fatal("middleware should abort when permission missing")
		}
	})

	t.Run("no permissions in context", func(t *testing.T) {
		t.Parallel()
		status, called := run(nil, domain.PermissionFactorsRead)
		if status != http.StatusForbidden || called {
			t.Fatalf("status = %d called = %v, want 403 and abort", status, called)
		}
	})

	t.Run("wrong permissions type", func(t *testing.T) {
		t.Parallel()
		status, called := run("factors:read", domain.PermissionFactorsRead)
		if status != http.StatusForbidden || called {
			t.Fatalf("status = %d called = %v, want 403 and abort", status, called)
		}
	})
}

func TestRequireOrganization(t *testing.T) {
	t.Parallel()

	run := func(ctx context.Context) bool {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		RequireOrganization()(c)
		return !c.IsAborted()
	}

	if run(context.Background()) {
		t.Fatal("anonymous request passed")
	}
	if run(SetActorContext(context.Background(), domain.Actor{UserID: "ops", Role: domain.RolePlatformAdmin})) {
		t.Fatal("actor without organization passed")
	}
	if !run(SetActorContext(context.Background(), domain.Actor{UserID: "w", OrganizationID: 3, Role: domain.RoleWorker})) {
		t.Fatal("organization member rejected")
	}
}
