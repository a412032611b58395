package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newFileDir creates <tmp>/<name>/ containing a content file named <name>
// and optionally a sidecar, matching the per-file-directory local layout.
func newFileDir(t *testing.T, name string, content []byte, sc *Sidecar) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	if content != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
	}

	if sc != nil {
		require.NoError(t, WriteSidecar(dir, *sc))
	}

	return dir
}

func TestIsChangedMissingFileForcesRedownload(t *testing.T) {
	dir := newFileDir(t, "report.pdf", nil, nil)

	p := ChangePredicate{}
	require.True(t, p.IsChanged(dir, RemoteAttrs{}))
}

func TestIsChangedMissingSidecarForcesRedownload(t *testing.T) {
	dir := newFileDir(t, "report.pdf", []byte("hello"), nil)

	p := ChangePredicate{}
	require.True(t, p.IsChanged(dir, RemoteAttrs{Size: 5}))
}

func TestIsChangedUnchangedAttrsReturnsFalse(t *testing.T) {
	remote := RemoteAttrs{
		Size:         5,
		URL:          "https://x/report.pdf",
		CreationDate: "2026-01-01",
		OriginalPath: "DriveA/report.pdf",
	}
	sc := &Sidecar{
		Size: remote.Size, URL: remote.URL,
		CreationDate: remote.CreationDate, OriginalPath: remote.OriginalPath,
		XORHash: "stale-hash",
	}

	dir := newFileDir(t, "report.pdf", []byte("hello"), sc)

	p := ChangePredicate{}
	require.False(t, p.IsChanged(dir, remote))
}

func TestIsChangedDiffersOnSize(t *testing.T) {
	remote := RemoteAttrs{Size: 5, URL: "u", CreationDate: "d", OriginalPath: "p"}
	sc := &Sidecar{Size: 6, URL: "u", CreationDate: "d", OriginalPath: "p"}

	dir := newFileDir(t, "f", []byte("hello"), sc)

	p := ChangePredicate{}
	require.True(t, p.IsChanged(dir, remote))
}

func TestIsChangedIgnoresHashMismatchWhenNotStrict(t *testing.T) {
	remote := RemoteAttrs{Size: 5, URL: "u", CreationDate: "d", OriginalPath: "p", QuickXorHash: "new-hash"}
	sc := &Sidecar{Size: 5, URL: "u", CreationDate: "d", OriginalPath: "p", XORHash: "old-hash"}

	dir := newFileDir(t, "f", []byte("hello"), sc)

	p := ChangePredicate{StrictMode: false}
	require.False(t, p.IsChanged(dir, remote))
}

func TestIsChangedStrictModeCatchesHashMismatch(t *testing.T) {
	remote := RemoteAttrs{Size: 5, URL: "u", CreationDate: "d", OriginalPath: "p", QuickXorHash: "new-hash"}
	sc := &Sidecar{Size: 5, URL: "u", CreationDate: "d", OriginalPath: "p", XORHash: "old-hash"}

	dir := newFileDir(t, "f", []byte("hello"), sc)

	p := ChangePredicate{StrictMode: true}
	require.True(t, p.IsChanged(dir, remote))
}
