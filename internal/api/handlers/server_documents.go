package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "greenledger.io/greenledger/internal/pkg/errors"
	"greenledger.io/greenledger/internal/repository"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/service"
	"greenledger.io/greenledger/internal/storage"
)

// multipartOverhead is the allowance for form fields and boundaries.
const multipartOverhead = 1 << 20

// UploadDocument handles POST /api/v1/documents (multipart field "file",
// optional "activity_id").
func (s *Server) UploadDocument(c *gin.Context) {
	actor := actorFromCtx(c)
	maxSize := s.documents.MaxSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(apperrors.ErrDocumentInvalid(err, "file exceeds upload limit", http.StatusRequestEntityTooLarge))
			return
		}
		_ = c.Error(apperrors.ErrDocumentInvalid(err, "multipart field 'file' is required", http.StatusBadRequest))
		return
	}

	var activityID *int64
	if raw := strings.TrimSpace(c.PostForm("activity_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			_ = c.Error(apperrors.ErrDocumentInvalid(err, "activity_id must be a positive integer", http.StatusBadRequest))
			return
		}
		activityID = &id
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(apperrors.ErrDocumentInvalid(err, "cannot read uploaded file", http.StatusBadRequest))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		_ = c.Error(apperrors.ErrDocumentInvalid(err, "cannot read uploaded file", http.StatusBadRequest))
		return
	}

	doc, err := s.documents.Upload(c.Request.Context(), actor, service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		ActivityID:  activityID,
	})
	if err != nil {
		_ = c.Error(documentError(err, ""))
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(c *gin.Context) {
	docs, err := s.documents.List(c.Request.Context(), actorFromCtx(c))
	if err != nil {
		_ = c.Error(documentError(err, ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs, "count": len(docs)})
}

// DownloadDocument handles GET /api/v1/documents/:id/download.
func (s *Server) DownloadDocument(c *gin.Context, documentID string) {
	doc, data, err := s.documents.Download(c.Request.Context(), actorFromCtx(c), documentID)
	if err != nil {
		_ = c.Error(documentError(err, documentID))
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, doc.ContentType, data)
}

// documentError maps document service failures to API errors.
func documentError(err error, documentID string) *apperrors.AppError {
	switch {
	case errors.Is(err, repository.ErrDocumentNotFound):
		return apperrors.ErrDocumentNotFoundf(documentID)
	case errors.Is(err, service.ErrDocumentAccessDenied),
		errors.Is(err, security.ErrAuthenticationFailed):
		return apperrors.ErrDocumentAccessDenied(err)
	case errors.Is(err, security.ErrInvalidBlob),
		errors.Is(err, storage.ErrBlobNotFound):
		return apperrors.ErrDocumentCorrupted(err)
	case errors.Is(err, service.ErrDocumentIntegrity):
		return apperrors.ErrDocumentIntegrityMismatch(err)
	case errors.Is(err, security.ErrMasterKeyMissing):
		return apperrors.ErrEncryptionNotConfigured(err)
	case errors.Is(err, service.ErrEmptyDocument):
		return apperrors.ErrDocumentInvalid(err, "file is empty", http.StatusBadRequest)
	case errors.Is(err, service.ErrDocumentTooLarge):
		return apperrors.ErrDocumentInvalid(err, "file exceeds upload limit", http.StatusRequestEntityTooLarge)
	default:
		return apperrors.Wrap(fmt.Errorf("document operation: %w", err), "INTERNAL_ERROR",
			"document operation failed", http.StatusInternalServerError)
	}
}
