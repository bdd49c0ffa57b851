package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

// TestNewest_PicksMostRecent verifies that the newest matching file wins
// even when an older archive with a higher version is present.
func TestNewest_PicksMostRecent(t *testing.T) {
	fsys := fstest.MapFS{
		"foo-0.9.0.vsix": {Data: []byte("old"), Mode: 0o644, ModTime: baseTime.Add(-time.Hour)},
		"foo-1.0.0.vsix": {Data: []byte("new!"), Mode: 0o644, ModTime: baseTime},
		"foo-2.0.0.vsix": {Data: []byte("stale"), Mode: 0o644, ModTime: baseTime.Add(-2 * time.Hour)},
		"README.md":      {Data: []byte("# readme"), Mode: 0o644, ModTime: baseTime.Add(time.Hour)},
	}

	a, err := NewFSLocatorFromFS(fsys).Newest("/work", ".vsix")
	require.NoError(t, err)

	assert.Equal(t, "foo-1.0.0.vsix", a.Name)
	assert.Equal(t, filepath.Join("/work", "foo-1.0.0.vsix"), a.Path)
	assert.Equal(t, int64(4), a.Size)
	assert.True(t, a.ModTime.Equal(baseTime))
}

// TestNewest_TieBreaksByName verifies the deterministic tie-break when two
// archives share a modification time.
func TestNewest_TieBreaksByName(t *testing.T) {
	fsys := fstest.MapFS{
		"foo-1.0.0.vsix": {Mode: 0o644, ModTime: baseTime},
		"foo-1.0.1.vsix": {Mode: 0o644, ModTime: baseTime},
	}

	a, err := NewFSLocatorFromFS(fsys).Newest(".", ".vsix")
	require.NoError(t, err)
	assert.Equal(t, "foo-1.0.1.vsix", a.Name)
}

// TestNewest_IgnoresDirectories ensures a directory named like an archive
// is never selected.
func TestNewest_IgnoresDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"cache.vsix/inner.txt": {Mode: 0o644, ModTime: baseTime.Add(time.Hour)},
		"ext-1.0.0.vsix":       {Mode: 0o644, ModTime: baseTime},
	}

	a, err := NewFSLocatorFromFS(fsys).Newest(".", ".vsix")
	require.NoError(t, err)
	assert.Equal(t, "ext-1.0.0.vsix", a.Name)
}

func TestNewest_NotFound(t *testing.T) {
	fsys := fstest.MapFS{
		"package.json": {Data: []byte("{}"), Mode: 0o644, ModTime: baseTime},
	}

	_, err := NewFSLocatorFromFS(fsys).Newest("/work", ".vsix")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "*.vsix")
}

// TestNewest_HostFilesystem exercises the os.DirFS-backed locator against
// real files with explicit modification times.
func TestNewest_HostFilesystem(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "ext-0.1.0.vsix")
	newer := filepath.Join(dir, "ext-0.2.0.vsix")
	require.NoError(t, os.WriteFile(older, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("bb"), 0o644))
	require.NoError(t, os.Chtimes(older, baseTime, baseTime))
	require.NoError(t, os.Chtimes(newer, baseTime.Add(time.Minute), baseTime.Add(time.Minute)))

	a, err := NewFSLocator().Newest(dir, ".vsix")
	require.NoError(t, err)
	assert.Equal(t, newer, a.Path)
	assert.Equal(t, int64(2), a.Size)
}

func TestNewest_MissingDirectory(t *testing.T) {
	_, err := NewFSLocator().Newest(filepath.Join(t.TempDir(), "nope"), ".vsix")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// TestArtifact_Listing checks the long-listing line format.
func TestArtifact_Listing(t *testing.T) {
	a := Artifact{
		Path:    "/work/foo-1.0.0.vsix",
		Name:    "foo-1.0.0.vsix",
		Size:    12345,
		Mode:    0o644,
		ModTime: baseTime,
	}

	assert.Equal(t, "-rw-r--r--      12345 Oct 19 12:00 /work/foo-1.0.0.vsix", a.Listing())
}
