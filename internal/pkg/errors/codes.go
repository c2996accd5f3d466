package errors

import "net/http"

// Error codes. Clients branch on the code, never on the message.

// Emission factor catalog codes.
const (
	CodeFactorNotFound   = "FACTOR_NOT_FOUND"
	CodeQueryInvalid     = "QUERY_INVALID"
	CodeCatalogReloadErr = "CATALOG_RELOAD_FAILED"
	CodeSearchCancelled  = "SEARCH_CANCELLED"
)

// Document vault codes.
const (
	CodeDocumentNotFound     = "DOCUMENT_NOT_FOUND"
	CodeDocumentAccessDenied = "DOCUMENT_ACCESS_DENIED"
	CodeDocumentCorrupted    = "DOCUMENT_CORRUPTED"
	CodeDocumentIntegrity    = "DOCUMENT_INTEGRITY_MISMATCH"
	CodeDocumentInvalid      = "DOCUMENT_INVALID"
	CodeEncryptionNotConfig  = "ENCRYPTION_NOT_CONFIGURED"
)

// Auth codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// ErrFactorNotFoundf creates a factor not found error.
func ErrFactorNotFoundf(factorID string) *AppError {
	return NotFound(CodeFactorNotFound, "emission factor not found").
		WithParams(map[string]interface{}{"id": factorID})
}

// ErrDocumentNotFoundf creates a document not found error.
func ErrDocumentNotFoundf(documentID string) *AppError {
	return NotFound(CodeDocumentNotFound, "document not found").
		WithParams(map[string]interface{}{"id": documentID})
}

// ErrDocumentAccessDenied is returned when a key does not authenticate the
// blob or the actor may not decrypt the document.
func ErrDocumentAccessDenied(err error) *AppError {
	return Wrap(err, CodeDocumentAccessDenied, "access to document denied", http.StatusForbidden)
}

// ErrDocumentCorrupted is returned when the stored blob is not a valid envelope.
func ErrDocumentCorrupted(err error) *AppError {
	return Wrap(err, CodeDocumentCorrupted, "stored document is corrupted", http.StatusUnprocessableEntity)
}

// ErrEncryptionNotConfigured is returned when no master key is available.
func ErrEncryptionNotConfigured(err error) *AppError {
	return Wrap(err, CodeEncryptionNotConfig, "document encryption is not configured", http.StatusInternalServerError)
}

// ErrDocumentIntegrityMismatch is returned when decrypted bytes do not match
// the checksum recorded at upload.
func ErrDocumentIntegrityMismatch(err error) *AppError {
	return Wrap(err, CodeDocumentIntegrity, "document failed integrity check", http.StatusUnprocessableEntity)
}

// ErrDocumentInvalid is returned for uploads that cannot be accepted.
func ErrDocumentInvalid(err error, message string, httpStatus int) *AppError {
	return Wrap(err, CodeDocumentInvalid, message, httpStatus)
}
