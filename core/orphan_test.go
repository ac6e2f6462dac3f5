package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditDirectoryFindsStrayEntries(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "d0"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("oops"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d1000"), []byte("x"), 0o644))

	stray, err := AuditDirectory(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stray.txt", "d1000"}, stray)
}

func TestAuditDirectoryCleanTree(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "d0"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d1"), 0o755))

	stray, err := AuditDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, stray)
}
