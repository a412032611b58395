package mirror

import (
	"crypto/subtle"
	"os"
	"path/filepath"
)

// RemoteAttrs is the set of remote-observed attributes compared against a
// file's sidecar to decide whether it needs redownloading.
type RemoteAttrs struct {
	Size         int64
	QuickXorHash string
	URL          string
	CreationDate string
	OriginalPath string
}

// ChangePredicate decides whether a local file is stale relative to a
// remote item. StrictMode additionally compares the sidecar's recorded
// xor_hash with the remote QuickXorHash — off by default, since the
// sidecar's xor_hash is otherwise recorded but not part of the equality check.
type ChangePredicate struct {
	StrictMode bool
}

// IsChanged reports whether localFileDir's content must be redownloaded.
// It returns true if the file is missing, its sidecar is missing, or any
// of size/url/creation_date/original_path differ from the sidecar. The
// sidecar's xor_hash is never consulted here unless StrictMode is set, in
// which case a mismatch between the sidecar's recorded hash (computed the
// last time the file was written) and remote.QuickXorHash also forces a
// redownload. The local content file itself is not rehashed.
func (p ChangePredicate) IsChanged(localFileDir string, remote RemoteAttrs) bool {
	contentPath := filepath.Join(localFileDir, filepath.Base(localFileDir))
	if _, err := os.Stat(contentPath); err != nil {
		return true
	}

	sc, err := ReadSidecar(localFileDir)
	if err != nil || sc == nil {
		return true
	}

	if sc.Size != remote.Size || sc.URL != remote.URL ||
		sc.CreationDate != remote.CreationDate || sc.OriginalPath != remote.OriginalPath {
		return true
	}

	if p.StrictMode && subtle.ConstantTimeCompare([]byte(sc.XORHash), []byte(remote.QuickXorHash)) != 1 {
		return true
	}

	return false
}
