package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromKey(t *testing.T) {
	kind, ok := kindFromKey("uploads/sales/2024-01-10/b1.csv")
	assert.True(t, ok)
	assert.Equal(t, domain.UploadSales, kind)

	kind, ok = kindFromKey("/uploads/inventory/2024-01-10/b2.xlsx")
	assert.True(t, ok)
	assert.Equal(t, domain.UploadInventory, kind)

	_, ok = kindFromKey("exports/sales/b1.csv")
	assert.False(t, ok)
	_, ok = kindFromKey("uploads/returns/b1.csv")
	assert.False(t, ok)
}

func TestObjectRelativePath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("2024-01-10/b1.csv"), objectRelativePath("uploads/sales", "uploads/sales/2024-01-10/b1.csv"))
	assert.Equal(t, filepath.FromSlash("uploads/sales/b1.csv"), objectRelativePath("", "uploads/sales/b1.csv"))
	assert.Equal(t, "b1.csv", objectRelativePath("uploads/sales/2024-01-10/b1.csv", "uploads/sales/2024-01-10/b1.csv"))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "week2")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	for _, name := range []string{filepath.Join(dir, "b.csv"), filepath.Join(nested, "a.xlsx"), filepath.Join(dir, "notes.txt")} {
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}
	single := filepath.Join(t.TempDir(), "single.csv")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o644))

	files, err := collectFiles([]string{dir, single})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "b.csv"), filepath.Join(nested, "a.xlsx"), single}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
