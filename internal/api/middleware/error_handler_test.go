package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "greenledger.io/greenledger/internal/pkg/errors"
	"greenledger.io/greenledger/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func TestErrorHandler_NoErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestErrorHandler_AppError(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrFactorNotFoundf("28001"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var body struct {
		Code   string            `json:"code"`
		Params map[string]string `json:"params"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != apperrors.CodeFactorNotFound {
		t.Errorf("code = %q, want %s", body.Code, apperrors.CodeFactorNotFound)
	}
	if body.Params["id"] != "28001" {
		t.Errorf("params.id = %q, want 28001", body.Params["id"])
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/err", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("something unexpected"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/err", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body["code"])
	}
}

func TestErrorHandler_KeepsWrittenResponse(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/partial", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(fmt.Errorf("late failure"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/partial", nil))

	if w.Code != http.StatusAccepted || w.Body.String() != "done" {
		t.Errorf("response = %d %q, want 202 done", w.Code, w.Body.String())
	}
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RequestLogger())
	var seen string
	router.GET("/rid", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	router.ServeHTTP(w, req)

	if seen != "trace-123" {
		t.Errorf("context request id = %q, want trace-123", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != "trace-123" {
		t.Errorf("header request id = %q, want trace-123", got)
	}
}
