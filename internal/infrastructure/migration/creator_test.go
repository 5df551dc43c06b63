package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/restoreops/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments table", "add_payments_table"},
		{"Add-Payments-Table", "add_payments_table"},
		{"ADD_PAYMENTS_TABLE", "add_payments_table"},
		{"add__payments__table", "add_payments_table"},
		{"Add Charges 123", "add_charges_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add forwarding index", "Speed up unforwarded lookups")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_add_forwarding_index.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_forwarding_index.down.sql", filepath.Base(first.DownPath))

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: add_forwarding_index")
	assert.Contains(t, string(content), "-- Description: Speed up unforwarded lookups")

	second, err := CreateMigration(dir, "Drop Legacy", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, "000002_drop_legacy", second.BaseName())
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RequiresName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":    {Data: []byte("--")},
		"000010_later.down.sql":  {Data: []byte("--")},
		"000002_second.up.sql":   {Data: []byte("--")},
		"000001_first.up.sql":    {Data: []byte("--")},
		"000001_first.down.sql":  {Data: []byte("--")},
		"README.md":              {Data: []byte("notes")},
		"notaversion_x.up.sql":   {Data: []byte("--")},
		"subdir/000003_x.up.sql": {Data: []byte("--")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, Name: "first"},
		{Version: 2, Name: "second"},
		{Version: 10, Name: "later"},
	}, got)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMigrations_Embedded(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "create_ledger_tables", got[0].Name)
	assert.Equal(t, "create_financial_entity_tables", got[1].Name)
	assert.Equal(t, "create_payment_tables", got[2].Name)

	// every up migration has a matching down migration
	for _, m := range got {
		_, err := migrations.FS.Open(m.BaseName() + ".down.sql")
		assert.NoError(t, err, m.BaseName())
	}
}
