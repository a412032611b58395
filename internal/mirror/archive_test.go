package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveCopiesFileIntoRunDir(t *testing.T) {
	root := t.TempDir()

	src := filepath.Join(root, "DriveA", "file.txt", "file.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("original contents"), 0o644))

	store := NewArchiveStore(root)
	require.NoError(t, store.Archive("DriveA/file.txt/file.txt"))

	matches, err := filepath.Glob(filepath.Join(root, "saves", "*", "DriveA", "file.txt", "file.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Equal(t, "original contents", string(data))

	// Source is untouched (archive is append-only, never deletes).
	data, err = os.ReadFile(src)
	require.NoError(t, err)
	require.Equal(t, "original contents", string(data))
}

// TestArchiveCopiesPerFileDirectory exercises the real calling convention
// used by BatchDispatcher.handleEntry and the orchestrator's reconcile
// pass: relPath names a per-file directory holding both the content file
// and its metadata sidecar, and the whole directory must be preserved.
func TestArchiveCopiesPerFileDirectory(t *testing.T) {
	root := t.TempDir()

	dir := filepath.Join(root, "DriveA", "file.txt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("original contents"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(`{"size":17}`), 0o644))

	store := NewArchiveStore(root)
	require.NoError(t, store.Archive("DriveA/file.txt"))

	runDirs, err := filepath.Glob(filepath.Join(root, "saves", "*"))
	require.NoError(t, err)
	require.Len(t, runDirs, 1)

	archivedFile := filepath.Join(runDirs[0], "DriveA", "file.txt", "file.txt")
	data, err := os.ReadFile(archivedFile)
	require.NoError(t, err)
	require.Equal(t, "original contents", string(data))

	archivedSidecar := filepath.Join(runDirs[0], "DriveA", "file.txt", "metadata.json")
	sidecar, err := os.ReadFile(archivedSidecar)
	require.NoError(t, err)
	require.Equal(t, `{"size":17}`, string(sidecar))

	// Source directory is untouched.
	_, err = os.Stat(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
}

func TestArchiveMissingSourceIsNotAnError(t *testing.T) {
	root := t.TempDir()

	store := NewArchiveStore(root)
	require.NoError(t, store.Archive("nope/missing.txt"))
}

func TestArchiveTwiceWithinOneRunOverwrites(t *testing.T) {
	root := t.TempDir()

	src := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	store := NewArchiveStore(root)
	require.NoError(t, store.Archive("f.txt"))

	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o644))
	require.NoError(t, store.Archive("f.txt"))

	matches, err := filepath.Glob(filepath.Join(root, "saves", "*", "f.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestDeleteOriginalRemovesFile(t *testing.T) {
	root := t.TempDir()

	src := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	store := NewArchiveStore(root)
	require.NoError(t, store.DeleteOriginal("f.txt"))

	_, err := os.Stat(src)
	require.True(t, os.IsNotExist(err))
}

func TestDeleteOriginalMissingFileIsNotAnError(t *testing.T) {
	root := t.TempDir()

	store := NewArchiveStore(root)
	require.NoError(t, store.DeleteOriginal("nope.txt"))
}

func TestDeleteOriginalRemovesDirectory(t *testing.T) {
	root := t.TempDir()

	dir := filepath.Join(root, "DriveA", "file.txt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{}"), 0o644))

	store := NewArchiveStore(root)
	require.NoError(t, store.DeleteOriginal("DriveA/file.txt"))

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}
