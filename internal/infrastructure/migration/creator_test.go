package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stock levels", "add_stock_levels"},
		{"Add-Stock-Levels", "add_stock_levels"},
		{"ADD_STOCK_LEVELS", "add_stock_levels"},
		{"add__stock__levels", "add_stock_levels"},
		{"Add Mappings 123", "add_mappings_123"},
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
	tmpDir := t.TempDir()

	pair, err := CreateMigration(tmpDir, "add stock levels")
	require.NoError(t, err)

	// version is a 14 digit sortable timestamp
	assert.Len(t, pair.Version, 14)
	assert.True(t, strings.HasSuffix(pair.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(pair.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(pair.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(pair.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add stock levels")
	assert.Contains(t, string(upContent), "UP migration")

	downContent, err := os.ReadFile(pair.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"000001_init_schema.up.sql",
		"000001_init_schema.down.sql",
		"000002_add_mappings.up.sql",
		"000002_add_mappings.down.sql",
		"README.md",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte("-- test"), 0644))
	}

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"000001_init_schema", "000002_add_mappings"}, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
