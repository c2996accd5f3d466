package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"greenledger.io/greenledger/internal/domain"
	apperrors "greenledger.io/greenledger/internal/pkg/errors"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
	minQueryLength     = 2
)

// SearchFactors handles GET /api/v1/factors/search.
//
// Query parameters: q, lang (default fr), limit (default 20, max 50),
// valid_only (default 1, drops archived factors) and status=valid, which keeps
// only validated factors. The index is asked for twice the limit so the
// status filters still fill the page.
func (s *Server) SearchFactors(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	lang := domain.ParseLanguage(c.DefaultQuery("lang", string(domain.LanguageFR)))
	validOnly := c.DefaultQuery("valid_only", "1") == "1"
	strictValid := c.Query("status") == string(domain.FactorStatusValid)

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeQueryInvalid, "limit must be an integer"))
			return
		}
		limit = n
	}
	limit = min(limit, maxSearchLimit)

	results := make([]factorSummary, 0)
	if utf8.RuneCountInString(q) < minQueryLength || limit <= 0 {
		c.JSON(http.StatusOK, results)
		return
	}

	hits, err := s.catalog.Search(c.Request.Context(), q, lang, limit*2)
	if err != nil {
		_ = c.Error(apperrors.ServiceUnavailable(apperrors.CodeSearchCancelled, "search was cancelled"))
		return
	}

	for _, hit := range hits {
		if validOnly && hit.Factor.Archived() {
			continue
		}
		if strictValid && hit.Factor.Status != domain.FactorStatusValid {
			continue
		}
		item := toFactorSummary(hit.Factor)
		item.Score = roundScore(hit.Score)
		results = append(results, item)
		if len(results) >= limit {
			break
		}
	}
	c.JSON(http.StatusOK, results)
}

// GetFactor handles GET /api/v1/factors/:id. Archived factors are returned.
func (s *Server) GetFactor(c *gin.Context, factorID string) {
	f, ok := s.catalog.GetByID(factorID)
	if !ok {
		_ = c.Error(apperrors.ErrFactorNotFoundf(factorID))
		return
	}
	c.JSON(http.StatusOK, toFactorDetail(f))
}

// ListFactorCategories handles GET /api/v1/factors/categories.
func (s *Server) ListFactorCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Categories())
}

// ListFactorSources handles GET /api/v1/factors/sources.
func (s *Server) ListFactorSources(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Sources())
}

// ListFactorsByCategory handles GET /api/v1/factors/by-category?category=&exact=.
func (s *Server) ListFactorsByCategory(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeQueryInvalid, "category is required"))
		return
	}
	exact := c.Query("exact") == "1" || strings.EqualFold(c.Query("exact"), "true")
	c.JSON(http.StatusOK, toFactorSummaries(s.catalog.SearchByCategory(category, exact)))
}

// ListFactorsBySource handles GET /api/v1/factors/by-source?source=.
func (s *Server) ListFactorsBySource(c *gin.Context) {
	source := strings.TrimSpace(c.Query("source"))
	if source == "" {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeQueryInvalid, "source is required"))
		return
	}
	c.JSON(http.StatusOK, toFactorSummaries(s.catalog.SearchBySource(source)))
}

// GetCatalogStatus handles GET /api/v1/factors/status.
func (s *Server) GetCatalogStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Status())
}
