package mirror

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// archiveTimestampFormat matches the teacher's run-timestamp convention.
const archiveTimestampFormat = "20060102-150405"

// ArchiveStore copies soon-to-be-replaced or soon-to-be-deleted local
// files into a timestamped, append-only archive tree rooted at
// <localRoot>/saves/<runTimestamp>/. One ArchiveStore is created per run;
// runTimestamp is fixed at construction and disambiguated with a short
// uuid suffix so two runs started within the same second never collide.
type ArchiveStore struct {
	localRoot string
	runDir    string

	mu      sync.Mutex
	created bool
}

// NewArchiveStore builds an ArchiveStore rooted at localRoot, generating a
// fresh run timestamp directory name.
func NewArchiveStore(localRoot string) *ArchiveStore {
	stamp := time.Now().Format(archiveTimestampFormat) + "-" + uuid.NewString()[:8]

	return &ArchiveStore{
		localRoot: localRoot,
		runDir:    filepath.Join(localRoot, "saves", stamp),
	}
}

// Archive copies the current contents of <localRoot>/<relPath> into the
// run's archive directory, creating parent directories as needed. relPath
// is normally a per-file directory (content file plus its metadata
// sidecar); the whole tree is copied recursively, matching the source
// system's save_outdated_file/copytree behavior of preserving the complete
// outdated directory, not just its content file. Calling Archive twice for
// the same relPath within a single run overwrites the archived copy,
// matching the source system's idempotent-within-a-run semantics. A
// missing source path is not an error — there is nothing to preserve.
func (a *ArchiveStore) Archive(relPath string) error {
	src := filepath.Join(a.localRoot, relPath)

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: stat archive source %s: %w", ErrLocalIO, relPath, err)
	}

	a.ensureRunDir()

	if info.IsDir() {
		return a.archiveDir(relPath, src)
	}

	dst := filepath.Join(a.runDir, relPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%w: creating archive parent dir for %s: %w", ErrLocalIO, relPath, err)
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%w: archiving %s: %w", ErrLocalIO, relPath, err)
	}

	return nil
}

// archiveDir recursively copies every regular file under src (a directory
// rooted at relPath) into the run directory, preserving the directory's
// internal structure.
func (a *ArchiveStore) archiveDir(relPath, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		dst := filepath.Join(a.runDir, relPath, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("%w: creating archive parent dir for %s: %w", ErrLocalIO, relPath, err)
		}

		if err := copyFile(path, dst); err != nil {
			return fmt.Errorf("%w: archiving %s: %w", ErrLocalIO, relPath, err)
		}

		return nil
	})
}

// DeleteOriginal removes <localRoot>/<relPath>, recursively if it names a
// directory. It is only ever called when the orchestrator's Prune policy
// is enabled and only after a successful Archive of the same path.
func (a *ArchiveStore) DeleteOriginal(relPath string) error {
	target := filepath.Join(a.localRoot, relPath)

	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("%w: deleting original %s: %w", ErrLocalIO, relPath, err)
	}

	return nil
}

func (a *ArchiveStore) ensureRunDir() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.created {
		return
	}

	// Best-effort: MkdirAll below in Archive also creates intermediate
	// dirs, this just guarantees the bare run dir exists even if the
	// store is never asked to archive anything with a nested relPath.
	_ = os.MkdirAll(a.runDir, 0o755)
	a.created = true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), dst)
}
