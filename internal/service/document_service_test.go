package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/governance/audit"
	"greenledger.io/greenledger/internal/repository"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/storage"
)

const testMasterKey = "test-master-key-for-documents"

type documentFixture struct {
	svc    *DocumentService
	docs   *repository.MemoryDocumentRepository
	audits *repository.MemoryAuditRepository
	store  *storage.FileStore
}

func newDocumentFixture(t *testing.T, masterKey string) documentFixture {
	t.Helper()
	docs := repository.NewMemoryDocumentRepository()
	audits := repository.NewMemoryAuditRepository()
	store := storage.NewFileStore(t.TempDir())
	svc := NewDocumentService(docs, store, security.NewEngine(masterKey), audit.NewLogger(audits))
	return documentFixture{svc: svc, docs: docs, audits: audits, store: store}
}

func (f documentFixture) actions(t *testing.T, orgID int64) []string {
	t.Helper()
	entries, err := f.audits.ListByOrganization(context.Background(), orgID, 100)
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

var (
	workerOrg1  = domain.Actor{UserID: "worker-1", OrganizationID: 1, Role: domain.RoleWorker}
	adminOrg1   = domain.Actor{UserID: "admin-1", OrganizationID: 1, Role: domain.RoleOrgAdmin}
	workerOrg2  = domain.Actor{UserID: "worker-2", OrganizationID: 2, Role: domain.RoleWorker}
	auditorOrg9 = domain.Actor{UserID: "auditor-9", OrganizationID: 9, Role: domain.RoleAuditor}
	platform    = domain.Actor{UserID: "root", OrganizationID: 1, Role: domain.RolePlatformAdmin}
	viewerOrg1  = domain.Actor{UserID: "viewer-1", OrganizationID: 1, Role: domain.RoleViewer}
)

func TestCanDecryptDocument(t *testing.T) {
	doc := &domain.Document{ID: "d", OrganizationID: 1}

	tests := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{"same org worker", workerOrg1, true},
		{"same org admin", adminOrg1, true},
		{"other org worker", workerOrg2, false},
		{"other org admin", domain.Actor{OrganizationID: 2, Role: domain.RoleOrgAdmin}, false},
		{"delegated auditor", auditorOrg9, true},
		{"platform admin of same org", platform, false},
		{"viewer", viewerOrg1, false},
		{"no role", domain.Actor{OrganizationID: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDecryptDocument(tt.actor, doc))
		})
	}
}

func TestCanUploadDocument(t *testing.T) {
	assert.True(t, CanUploadDocument(workerOrg1))
	assert.True(t, CanUploadDocument(adminOrg1))
	assert.False(t, CanUploadDocument(auditorOrg9))
	assert.False(t, CanUploadDocument(platform))
	assert.False(t, CanUploadDocument(domain.Actor{Role: domain.RoleWorker}))
}

func TestDocumentService_UploadDownloadRoundTrip(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()
	body := []byte("%PDF-1.7 facture électricité janvier")
	activity := int64(42)

	doc, err := f.svc.Upload(ctx, workerOrg1, UploadInput{
		Filename:    "../../etc/facture janvier.pdf",
		ContentType: "application/pdf",
		Data:        body,
		ActivityID:  &activity,
	})
	require.NoError(t, err)
	assert.Equal(t, "facture_janvier.pdf", doc.Filename)
	assert.Equal(t, security.Hash(body), doc.HashChecksum)
	assert.EqualValues(t, len(body), doc.FileSize)
	assert.True(t, doc.Encrypted)
	assert.Equal(t, int64(1), doc.OrganizationID)
	require.NotNil(t, doc.ActivityID)
	assert.Equal(t, activity, *doc.ActivityID)

	raw, err := os.ReadFile(filepath.Join(f.store.Root(), filepath.FromSlash(doc.StoragePath)))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "facture", "blob is stored encrypted")
	assert.Len(t, raw, len(body)+security.Overhead)

	for _, actor := range []domain.Actor{workerOrg1, adminOrg1, auditorOrg9} {
		got, data, err := f.svc.Download(ctx, actor, doc.ID)
		require.NoError(t, err, actor.UserID)
		assert.Equal(t, body, data)
		assert.Equal(t, doc.ID, got.ID)
	}

	assert.Equal(t, []string{
		audit.ActionAccessDocument,
		audit.ActionAccessDocument,
		audit.ActionAccessDocument,
		audit.ActionUploadDocument,
	}, f.actions(t, 1))
}

func TestDocumentService_DownloadDenied(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "a.csv", Data: []byte("x;y")})
	require.NoError(t, err)

	for _, actor := range []domain.Actor{workerOrg2, platform, viewerOrg1} {
		_, data, err := f.svc.Download(ctx, actor, doc.ID)
		require.ErrorIs(t, err, ErrDocumentAccessDenied, actor.UserID)
		assert.Nil(t, data)
	}

	assert.Equal(t, []string{
		audit.ActionAccessDeniedDocument,
		audit.ActionAccessDeniedDocument,
		audit.ActionAccessDeniedDocument,
		audit.ActionUploadDocument,
	}, f.actions(t, 1))
}

func TestDocumentService_UploadRejected(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, auditorOrg9, UploadInput{Filename: "a", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrDocumentAccessDenied)

	_, err = f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "a"})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	f.svc.WithMaxSize(4)
	_, err = f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "a", Data: []byte("12345")})
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	docs, err := f.svc.List(ctx, workerOrg1)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_WithMaxSize(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	assert.Equal(t, DefaultMaxDocumentSize, f.svc.MaxSize())
	assert.EqualValues(t, 10, f.svc.WithMaxSize(10).MaxSize())
	assert.EqualValues(t, 10, f.svc.WithMaxSize(0).MaxSize(), "non-positive keeps the limit")
}

// failingAuditRepository rejects every write.
type failingAuditRepository struct {
	repository.AuditRepository
}

func (failingAuditRepository) Append(context.Context, *domain.AuditEntry) error {
	return errors.New("audit store down")
}

func TestDocumentService_UploadUndoneWhenAuditFails(t *testing.T) {
	docs := repository.NewMemoryDocumentRepository()
	store := storage.NewFileStore(t.TempDir())
	svc := NewDocumentService(docs, store, security.NewEngine(testMasterKey),
		audit.NewLogger(failingAuditRepository{}))
	ctx := context.Background()

	doc, err := svc.Upload(ctx, workerOrg1, UploadInput{Filename: "facture.pdf", Data: []byte("kWh 1200")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit store down")
	assert.Nil(t, doc)

	list, err := svc.List(ctx, workerOrg1)
	require.NoError(t, err)
	assert.Len(t, list, 0, "metadata is rolled back")

	var blobs []string
	err = filepath.WalkDir(store.Root(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			blobs = append(blobs, path)
		}
		return nil
	})
	if !errors.Is(err, os.ErrNotExist) {
		require.NoError(t, err)
	}
	assert.Empty(t, blobs, "blob is removed")
}

func TestDocumentService_MissingMasterKey(t *testing.T) {
	f := newDocumentFixture(t, "")

	_, err := f.svc.Upload(context.Background(), workerOrg1, UploadInput{Filename: "a", Data: []byte("x")})
	require.ErrorIs(t, err, security.ErrMasterKeyMissing)

	entries, err := os.ReadDir(f.store.Root())
	if !errors.Is(err, os.ErrNotExist) {
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing stored without a key")
	}
}

func TestDocumentService_CorruptedBlob(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "a.txt", Data: []byte("hello world")})
	require.NoError(t, err)

	path := filepath.Join(f.store.Root(), filepath.FromSlash(doc.StoragePath))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, _, err = f.svc.Download(ctx, workerOrg1, doc.ID)
	require.ErrorIs(t, err, security.ErrAuthenticationFailed)

	require.NoError(t, os.WriteFile(path, raw[:10], 0o600))
	_, _, err = f.svc.Download(ctx, workerOrg1, doc.ID)
	require.ErrorIs(t, err, security.ErrInvalidBlob)
}

func TestDocumentService_ChecksumMismatch(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "a.txt", Data: []byte("hello")})
	require.NoError(t, err)

	// re-encrypt different content under the same key
	other, err := security.NewEngine(testMasterKey).Encrypt([]byte("goodbye"), 1)
	require.NoError(t, err)
	path := filepath.Join(f.store.Root(), filepath.FromSlash(doc.StoragePath))
	require.NoError(t, os.WriteFile(path, other, 0o600))

	_, _, err = f.svc.Download(ctx, workerOrg1, doc.ID)
	require.ErrorIs(t, err, ErrDocumentIntegrity)
}

func TestDocumentService_NotFound(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	_, _, err := f.svc.Download(context.Background(), workerOrg1, "missing")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

func TestDocumentService_ListScopedToOrganization(t *testing.T) {
	f := newDocumentFixture(t, testMasterKey)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, workerOrg1, UploadInput{Filename: "one.pdf", Data: []byte("1")})
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, workerOrg2, UploadInput{Filename: "two.pdf", Data: []byte("2")})
	require.NoError(t, err)

	docs, err := f.svc.List(ctx, adminOrg1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "one.pdf", docs[0].Filename)

	docs, err = f.svc.List(ctx, domain.Actor{UserID: "anon"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"dir/sub/report.pdf":   "report.pdf",
		`C:\Users\me\bill.pdf`: "bill.pdf",
		"my bill.pdf":          "my_bill.pdf",
		`quote".pdf`:           "quote_.pdf",
		"a..b.pdf":             "a_b.pdf",
		"line\nbreak.txt":      "linebreak.txt",
		"":                     "document",
		"..":                   "document",
		"/":                    "document",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
