package mirror

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// sidecarFileName is the per-file metadata record written alongside the
// mirrored content, one per file directory.
const sidecarFileName = "metadata.json"

// Sidecar is the on-disk record of the last successful download for one
// file, written to <file_dir>/metadata.json.
type Sidecar struct {
	Size         int64  `json:"size"`
	OriginalPath string `json:"original_path"`
	XORHash      string `json:"xor_hash,omitempty"`
	URL          string `json:"url,omitempty"`
	CreationDate string `json:"creation_date"`
}

// ReadSidecar reads the sidecar next to fileDir. A missing or unreadable
// sidecar returns (nil, nil) — absence is not an error, it is the I1
// signal that the file must be treated as changed.
func ReadSidecar(fileDir string) (*Sidecar, error) {
	path := filepath.Join(fileDir, sidecarFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, nil //nolint:nilerr // an unreadable sidecar is treated the same as absent
	}

	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, nil //nolint:nilerr // a corrupt sidecar forces a redownload, not a fatal error
	}

	return &sc, nil
}

// WriteSidecar writes sc to <fileDir>/metadata.json, 2-space indented, with
// no HTML escaping, atomically via a temp file in the same directory
// followed by a rename.
func WriteSidecar(fileDir string, sc Sidecar) error {
	buf, err := marshalSidecar(sc)
	if err != nil {
		return fmt.Errorf("mirror: marshaling sidecar: %w", err)
	}

	tmp, err := os.CreateTemp(fileDir, sidecarFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating sidecar temp file: %w", ErrLocalIO, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("%w: writing sidecar temp file: %w", ErrLocalIO, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("%w: closing sidecar temp file: %w", ErrLocalIO, err)
	}

	if err := os.Rename(tmpName, filepath.Join(fileDir, sidecarFileName)); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("%w: renaming sidecar into place: %w", ErrLocalIO, err)
	}

	return nil
}

func marshalSidecar(sc Sidecar) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(sc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
