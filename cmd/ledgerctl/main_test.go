package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/app/modules"
	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/security"
	"greenledger.io/greenledger/internal/service"
	"greenledger.io/greenledger/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixtureCatalog(t *testing.T) string {
	t.Helper()
	return testutil.WriteCatalog(t, t.TempDir(), "base.csv", testutil.TransportRows())
}

func TestSearchCommand(t *testing.T) {
	path := fixtureCatalog(t)

	out, err := run(t, "search", "transport", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "28001")
	assert.Contains(t, out, "28002")
	assert.NotContains(t, out, "19999", "archived factors are never listed")

	out, err = run(t, "search", "transport", "--catalog", path, "--json", "--limit", "1")
	require.NoError(t, err)
	var hits []domain.ScoredFactor
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "28002", hits[0].Factor.ID)

	out, err = run(t, "search", "road", "freight", "--lang", "en", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Road freight transport")

	out, err = run(t, "search", "zzzz", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No factors found.")
}

func TestFactorCommand(t *testing.T) {
	path := fixtureCatalog(t)

	out, err := run(t, "factor", "28001", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Road freight transport")
	assert.Contains(t, out, "CO2 fossil:")
	assert.NotContains(t, out, "CH4 bio:", "absent gases are not printed")

	out, err = run(t, "factor", "28001", "--catalog", path, "--json")
	require.NoError(t, err)
	var f domain.Factor
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.InDelta(t, 0.0937, f.Value, 1e-12)

	_, err = run(t, "factor", "nope", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListingCommands(t *testing.T) {
	path := fixtureCatalog(t)

	out, err := run(t, "categories", "--catalog", path, "--json")
	require.NoError(t, err)
	var categories []string
	require.NoError(t, json.Unmarshal([]byte(out), &categories))
	assert.Contains(t, categories, "Transport de marchandises > Routier")

	out, err = run(t, "sources", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "Base Carbone")

	out, err = run(t, "stats", "--catalog", path, "--json")
	require.NoError(t, err)
	var status service.CatalogStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 1, status.Archived)
}

func TestCatalogMissing(t *testing.T) {
	_, err := run(t, "stats", "--catalog", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog file not found")
}

func TestEncryptDecryptCommands(t *testing.T) {
	t.Setenv("MASTER_KEY", "ledgerctl-test-master-key")
	dir := t.TempDir()
	plain := filepath.Join(dir, "facture.pdf")
	blob := filepath.Join(dir, "facture.enc")
	back := filepath.Join(dir, "facture.out.pdf")
	body := []byte("%PDF-1.7 facture gaz naturel")
	require.NoError(t, os.WriteFile(plain, body, 0o600))

	out, err := run(t, "encrypt", "--org", "3", "--in", plain, "--out", blob)
	require.NoError(t, err)
	assert.Contains(t, out, security.Hash(body))

	raw, err := os.ReadFile(blob)
	require.NoError(t, err)
	assert.Len(t, raw, len(body)+security.Overhead)

	_, err = run(t, "decrypt", "--org", "3", "--in", blob, "--out", back)
	require.NoError(t, err)
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	_, err = run(t, "decrypt", "--org", "4", "--in", blob, "--out", back)
	require.ErrorIs(t, err, security.ErrAuthenticationFailed, "another organization's key")

	_, err = run(t, "encrypt", "--org", "3", "--in", plain)
	require.Error(t, err, "--out is required")
}

func TestHashCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	out, err := run(t, "hash", path)
	require.NoError(t, err)
	assert.Equal(t, security.Hash([]byte("hello"))+"  "+path+"\n", out)
}

func TestTokenCommand(t *testing.T) {
	const secret = "ledgerctl-session-secret-0123456789abcdef"
	t.Setenv("SECURITY_SESSION_SECRET", secret)

	out, err := run(t, "token", "--user", "u-7", "--org", "3", "--role", "worker")
	require.NoError(t, err)

	jwtCfg := middleware.JWTConfig{SigningKey: []byte(secret), Issuer: modules.TokenIssuer}
	claims, err := jwtCfg.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, "u-7", actor.UserID)
	assert.Equal(t, int64(3), actor.OrganizationID)
	assert.Equal(t, domain.RoleWorker, actor.Role)
	assert.ElementsMatch(t, domain.PermissionsFor(domain.RoleWorker), claims.Permissions)

	_, err = run(t, "token", "--user", "u-7", "--role", "superuser")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
