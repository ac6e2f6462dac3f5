package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionDigestStableAndSensitiveToContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section")

	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	d1, err := SectionDigest(path)
	require.NoError(t, err)

	d2, err := SectionDigest(path)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	require.NoError(t, os.WriteFile(path, []byte("hello!\n"), 0o644))
	d3, err := SectionDigest(path)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestSectionDigestMissingFile(t *testing.T) {
	_, err := SectionDigest(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
