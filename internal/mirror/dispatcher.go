package mirror

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/driveloom/mirror/internal/gateway"
	"github.com/driveloom/mirror/pkg/quickxorhash"
)

// BatchLimit is the number of pending entries resolved per batch POST,
// matching the remote API's per-request sub-request ceiling.
const BatchLimit = gateway.GraphBatchLimit

// ChunkSize is the buffer size used when streaming a downloaded file to
// disk.
const ChunkSize = 64 * 1024

// batchResolver is the subset of RemoteGateway the dispatcher depends on
// for metadata resolution and content download.
type batchResolver interface {
	BatchResolve(ctx context.Context, items []gateway.BatchRequestItem) (map[int]gateway.ResolveOutcome, error)
	StreamContent(ctx context.Context, url string, authenticated bool) (io.ReadCloser, error)
}

// DispatcherConfig tunes a BatchDispatcher's behavior.
type DispatcherConfig struct {
	Predicate             ChangePredicate
	RequeueOnBatchFailure bool
	ContentEndpointFmt    string // e.g. baseURL + "/drives/%s/items/%s/content"
}

// BatchDispatcher drains a PendingQueue in fixed-size batches, resolving
// download URLs via the remote gateway, streaming content to disk, and
// archiving any file it is about to replace. It is the heart of the
// incremental sync engine.
type BatchDispatcher struct {
	gw        batchResolver
	queue     *PendingQueue
	localRoot string
	archive   *ArchiveStore
	ledger    *RunLedger
	logger    *slog.Logger
	cfg       DispatcherConfig

	observedMu sync.Mutex
	observed   map[string]struct{}
}

// NewBatchDispatcher builds a dispatcher over queue, writing content under
// localRoot and archiving replaced files via archive. ledger may be nil to
// disable crash-recovery mirroring (used by tests that don't exercise it).
func NewBatchDispatcher(
	gw batchResolver,
	queue *PendingQueue,
	localRoot string,
	archive *ArchiveStore,
	ledger *RunLedger,
	logger *slog.Logger,
	cfg DispatcherConfig,
) *BatchDispatcher {
	return &BatchDispatcher{
		gw:        gw,
		queue:     queue,
		localRoot: localRoot,
		archive:   archive,
		ledger:    ledger,
		logger:    logger,
		cfg:       cfg,
		observed:  make(map[string]struct{}),
	}
}

// MaybeDrain processes whole batches from the queue. With final=false it
// drains only while the queue holds at least BatchLimit entries (the
// walker calls this opportunistically between folders). With final=true
// it drains down to an empty queue, one batch at a time, used once the
// walk has finished enumerating a drive.
func (d *BatchDispatcher) MaybeDrain(ctx context.Context, final bool) error {
	for {
		if !final && d.queue.Len() < BatchLimit {
			return nil
		}

		if final && d.queue.Len() == 0 {
			return nil
		}

		batch := d.queue.TakeBatch(BatchLimit)
		if len(batch) == 0 {
			return nil
		}

		if err := d.processBatch(ctx, batch); err != nil {
			return err
		}
	}
}

// ObservedFiles returns the set of relative paths resolved (whether
// skipped as unchanged or freshly downloaded) since dispatcher creation.
// SyncOrchestrator uses this for post-run archive reconciliation.
func (d *BatchDispatcher) ObservedFiles() map[string]struct{} {
	d.observedMu.Lock()
	defer d.observedMu.Unlock()

	out := make(map[string]struct{}, len(d.observed))
	for k := range d.observed {
		out[k] = struct{}{}
	}

	return out
}

func (d *BatchDispatcher) markObserved(relPath string) {
	d.observedMu.Lock()
	d.observed[relPath] = struct{}{}
	d.observedMu.Unlock()
}

// processBatch runs the per-batch protocol: acquire token (implicit in the
// gateway call), resolve metadata, then handle each entry in turn.
func (d *BatchDispatcher) processBatch(ctx context.Context, batch []PendingEntry) error {
	reqs := make([]gateway.BatchRequestItem, len(batch))
	for i, e := range batch {
		reqs[i] = gateway.BatchRequestItem{DriveID: e.DriveID, ItemID: e.Item.ID}
	}

	outcomes, err := d.gw.BatchResolve(ctx, reqs)
	if err != nil {
		// Unconditional requeue: both cancellation and token failure bypass
		// RequeueOnBatchFailure entirely, unlike the generic per-entry
		// unresolved path below. A missing token isn't a property of this
		// batch's entries, so there is nothing to usefully drop.
		d.queue.Prepend(batch)

		if ctx.Err() != nil {
			return fmt.Errorf("mirror: batch resolve canceled: %w", ctx.Err())
		}

		if errors.Is(err, gateway.ErrToken) {
			return fmt.Errorf("mirror: batch resolve failed, token unavailable: %w", err)
		}

		return fmt.Errorf("mirror: batch resolve failed: %w", err)
	}

	for j, entry := range batch {
		outcome, ok := outcomes[j]
		if !ok {
			if d.cfg.RequeueOnBatchFailure {
				d.queue.Prepend(batch[j:])

				return nil
			}

			// Default: drop this entry for the current run, revisited on
			// the next full run.
			d.finalizePendingRow(ctx, entry)

			continue
		}

		if err := d.handleEntry(ctx, entry, outcome); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				d.queue.Prepend(batch[j:])

				return err
			}

			var dlErr *gateway.DownloadHTTPError
			if errors.As(err, &dlErr) {
				d.logger.Warn("download failed, requeuing entry at the tail",
					slog.String("path", entry.FolderRel()), slog.Int("status", dlErr.Status))
				d.queue.Push(entry)

				continue
			}

			d.logger.Error("unexpected error handling entry, requeuing remainder",
				slog.String("path", entry.FolderRel()), slog.String("error", err.Error()))
			d.queue.Prepend(batch[j:])

			return nil
		}
	}

	return nil
}

// handleEntry applies the change predicate, downloads if needed, archives
// any file it replaces, and writes the sidecar.
func (d *BatchDispatcher) handleEntry(ctx context.Context, entry PendingEntry, outcome gateway.ResolveOutcome) error {
	folderRel := entry.FolderRel()
	fullFolder := filepath.Join(d.localRoot, filepath.FromSlash(folderRel))
	fullFile := filepath.Join(fullFolder, entry.Item.Name)

	size := outcome.Size
	if size == 0 {
		size = entry.Item.Size
	}

	remote := RemoteAttrs{
		Size:         size,
		QuickXorHash: outcome.QuickXorHash,
		URL:          entry.Item.WebURL,
		CreationDate: entry.Item.CreatedDate,
		OriginalPath: folderRel,
	}

	if err := os.MkdirAll(fullFolder, 0o755); err != nil {
		return fmt.Errorf("%w: creating folder %s: %w", ErrLocalIO, folderRel, err)
	}

	if !d.cfg.Predicate.IsChanged(fullFolder, remote) {
		d.logger.Info("skip unchanged", slog.String("path", folderRel))
		d.markObserved(folderRel)
		d.finalizePendingRow(ctx, entry)

		return nil
	}

	authenticated := outcome.DownloadURL == ""

	downloadURL := outcome.DownloadURL
	if authenticated {
		downloadURL = fmt.Sprintf(d.cfg.ContentEndpointFmt, entry.DriveID, entry.Item.ID)
	}

	rc, err := d.gw.StreamContent(ctx, downloadURL, authenticated)
	if err != nil {
		return fmt.Errorf("mirror: downloading %s: %w", folderRel, err)
	}
	defer rc.Close()

	existed := fileExists(fullFile)
	if existed {
		if err := d.archive.Archive(folderRel); err != nil {
			return err
		}
	}

	observedHash, err := streamToFile(rc, fullFile)
	if err != nil {
		return fmt.Errorf("mirror: writing %s: %w", folderRel, err)
	}

	if existed {
		d.logger.Info("update", slog.String("path", folderRel))
	} else {
		d.logger.Info("insert", slog.String("path", folderRel))
	}

	sc := Sidecar{
		Size:         size,
		OriginalPath: folderRel,
		XORHash:      observedHash,
		URL:          entry.Item.WebURL,
		CreationDate: entry.Item.CreatedDate,
	}

	if err := WriteSidecar(fullFolder, sc); err != nil {
		return err
	}

	d.markObserved(folderRel)
	d.finalizePendingRow(ctx, entry)

	return nil
}

func (d *BatchDispatcher) finalizePendingRow(ctx context.Context, entry PendingEntry) {
	if d.ledger == nil {
		return
	}

	if err := d.ledger.DeletePending(ctx, entry); err != nil {
		d.logger.Warn("failed to clear ledger row", slog.String("path", entry.FolderRel()), slog.String("error", err.Error()))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// streamToFile writes rc to a temp file in dst's directory, computing the
// QuickXorHash as it goes, then renames it onto dst once complete.
func streamToFile(rc io.Reader, dst string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".part-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp content file: %w", ErrLocalIO, err)
	}

	tmpName := tmp.Name()

	hasher := quickxorhash.New()
	mw := io.MultiWriter(tmp, hasher)

	buf := make([]byte, ChunkSize)

	if _, err := io.CopyBuffer(mw, rc, buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return "", fmt.Errorf("%w: streaming content: %w", ErrLocalIO, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return "", fmt.Errorf("%w: closing temp content file: %w", ErrLocalIO, err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)

		return "", fmt.Errorf("%w: renaming content into place: %w", ErrLocalIO, err)
	}

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}
