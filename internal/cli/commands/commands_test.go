package commands

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/exchange"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig хранилище во временном файле SQLite
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDSN: filepath.Join(t.TempDir(), "data", "biomass.sqlite"),
		AdminEmail:  "admin@example.com",
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (int, string) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return code, out
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCommands_ImportApproveExport(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	writeCSV(t, in, exchange.IdentitiesFile, "email,credentialHash,status,role,createdAt,approvedAt\n"+
		"p@x.de,$2a$10$x,pending,supplier,2026-01-02T10:00:00Z,\n"+
		"q@x.de,$2a$10$y,pending,supplier,2026-01-03T10:00:00Z,\n")
	writeCSV(t, in, exchange.CustomersFile, "ownerId,name,contact\np@x.de,Hof,hof@x.de\n")

	code, out := run(t, cfg, "import", in)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Imported: 2 identities, 1 customers")

	code, out = run(t, cfg, "pending")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "p@x.de")
	assert.Contains(t, out, "q@x.de")

	code, out = run(t, cfg, "approve", "P@x.de")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Approved: p@x.de")

	code, out = run(t, cfg, "reject", "q@x.de")
	require.Equal(t, 0, code, out)

	// одобренную заявку отклонить нельзя
	code, out = run(t, cfg, "reject", "p@x.de")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "reject error")

	code, out = run(t, cfg, "approved")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "p@x.de")
	assert.NotContains(t, out, "q@x.de")

	dir := t.TempDir()
	code, out = run(t, cfg, "export", dir)
	require.Equal(t, 0, code, out)
	data, err := os.ReadFile(filepath.Join(dir, exchange.IdentitiesFile))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), "p@x.de")

	code, _ = run(t, cfg, "delete", "p@x.de")
	require.Equal(t, 0, code)
	code, out = run(t, cfg, "pending")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No identities")
}

func TestCommands_Usage(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{{"import"}, {"export", "a", "b"}, {"approve"}, {"pending", "extra"}} {
		code, out := run(t, cfg, args...)
		assert.Equal(t, 2, code, args)
		assert.Contains(t, out, "Usage:", args)
	}
}

func TestCommands_ImportCorrupt(t *testing.T) {
	cfg := testConfig(t)
	in := t.TempDir()
	writeCSV(t, in, exchange.IdentitiesFile, "email\n\"broken\n")

	code, out := run(t, cfg, "import", in)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "import error")
}
