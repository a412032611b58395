package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/driveloom/mirror/internal/gateway"
)

// driveLister is the subset of RemoteGateway SyncOrchestrator depends on
// directly (TreeWalker and BatchDispatcher depend on the rest).
type driveLister interface {
	ListDrives(ctx context.Context, siteID string) ([]gateway.Drive, error)
	childLister
	batchResolver
}

// OrchestratorConfig carries the tuning knobs SyncOrchestrator needs,
// trimmed from the full resolved Config by the caller (internal/config).
type OrchestratorConfig struct {
	SiteID                string
	LocalRoot             string
	BatchLimit            int
	WorkerLimit           int
	Prune                 bool
	StrictHashMode        bool
	RequeueOnBatchFailure bool
	ContentEndpointFmt    string
}

// SyncOrchestrator drives one full mirror pass: selecting drives, walking
// each one's tree, draining the pending queue, and reconciling local files
// that were not observed during the walk.
type SyncOrchestrator struct {
	gw     driveLister
	ledger *RunLedger
	logger *slog.Logger
	cfg    OrchestratorConfig

	selected []gateway.Drive
}

// NewSyncOrchestrator builds an orchestrator over gw, persisting
// crash-recovery state to ledger (nil disables the RunLedger).
func NewSyncOrchestrator(gw driveLister, ledger *RunLedger, logger *slog.Logger, cfg OrchestratorConfig) *SyncOrchestrator {
	return &SyncOrchestrator{gw: gw, ledger: ledger, logger: logger, cfg: cfg}
}

// SelectDrives fetches the site's drives and intersects them with
// wantedNames, logging any requested name that isn't present.
func (o *SyncOrchestrator) SelectDrives(ctx context.Context, wantedNames []string) error {
	drives, err := o.gw.ListDrives(ctx, o.cfg.SiteID)
	if err != nil {
		return fmt.Errorf("mirror: listing drives: %w", err)
	}

	byName := make(map[string]gateway.Drive, len(drives))
	for _, d := range drives {
		byName[d.Name] = d
	}

	var selected []gateway.Drive

	for _, name := range wantedNames {
		d, ok := byName[name]
		if !ok {
			o.logger.Warn("requested drive not found at site", slog.String("name", name))

			continue
		}

		selected = append(selected, d)
	}

	o.selected = selected

	return nil
}

// Run synchronizes every selected drive in turn. A non-cancellation error
// on one drive is logged and the orchestrator continues to the next;
// cancellation propagates immediately. The interrupted drive is not
// reconciled; its unfinished entries are not finalized, so their RunLedger
// rows (when a ledger is configured) remain for the next run.
func (o *SyncOrchestrator) Run(ctx context.Context) error {
	for _, d := range o.selected {
		if err := o.SyncDrive(ctx, d.ID, d.Name); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			o.logger.Error("drive sync failed, continuing to next drive",
				slog.String("drive", d.Name), slog.String("error", err.Error()))
		}
	}

	return nil
}

// SyncDrive runs one drive's full lifecycle: prepare, walk, drain,
// reconcile, deregister.
func (o *SyncOrchestrator) SyncDrive(ctx context.Context, driveID, driveName string) error {
	driveRoot := filepath.Join(o.cfg.LocalRoot, driveName)
	if err := os.MkdirAll(driveRoot, 0o755); err != nil {
		return fmt.Errorf("%w: creating drive root %s: %w", ErrLocalIO, driveName, err)
	}

	if o.ledger != nil {
		if err := o.ledger.RegisterDrive(ctx, driveID, driveName); err != nil {
			return err
		}
	}

	queue := NewPendingQueue()

	if o.ledger != nil {
		prior, err := o.ledger.LoadPending(ctx, driveID)
		if err != nil {
			return err
		}

		for _, e := range prior {
			queue.Push(e)
		}

		if len(prior) > 0 {
			o.logger.Info("resumed pending entries from ledger",
				slog.String("drive", driveName), slog.Int("count", len(prior)))
		}
	}

	archive := NewArchiveStore(o.cfg.LocalRoot)

	dispatcher := NewBatchDispatcher(o.gw, queue, o.cfg.LocalRoot, archive, o.ledger, o.logger, DispatcherConfig{
		Predicate:             ChangePredicate{StrictMode: o.cfg.StrictHashMode},
		RequeueOnBatchFailure: o.cfg.RequeueOnBatchFailure,
		ContentEndpointFmt:    o.cfg.ContentEndpointFmt,
	})

	walker := NewTreeWalker(o.gw, o.cfg.LocalRoot, queue, o.ledger, o.logger)
	walker.SetDrainer(func(ctx context.Context) {
		if err := dispatcher.MaybeDrain(ctx, false); err != nil {
			o.logger.Warn("opportunistic drain failed", slog.String("error", err.Error()))
		}
	})

	if err := walker.Walk(ctx, driveID, "root", driveName); err != nil {
		return err
	}

	if o.cfg.WorkerLimit > 1 {
		if err := RunPool(ctx, dispatcher, queue, o.cfg.WorkerLimit); err != nil {
			return err
		}
	} else if err := dispatcher.MaybeDrain(ctx, true); err != nil {
		return err
	}

	if err := o.reconcile(driveRoot, dispatcher.ObservedFiles(), archive); err != nil {
		o.logger.Error("reconciliation failed", slog.String("drive", driveName), slog.String("error", err.Error()))
	}

	if o.ledger != nil {
		if err := o.ledger.DeregisterDrive(ctx, driveID); err != nil {
			return err
		}
	}

	return nil
}

// reconcile archives (and, if Prune is set, deletes) every local file
// under driveRoot that was not observed during this run's walk. Filenames
// are compared in NFC form so filesystems that store combining-character
// sequences in NFD (notably macOS's HFS+/APFS) never flag a correctly
// mirrored file as orphaned purely over Unicode normalization form.
func (o *SyncOrchestrator) reconcile(driveRoot string, observed map[string]struct{}, archive *ArchiveStore) error {
	normalizedObserved := make(map[string]struct{}, len(observed))
	for rel := range observed {
		normalizedObserved[norm.NFC.String(rel)] = struct{}{}
	}

	return filepath.WalkDir(driveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || d.Name() == sidecarFileName {
			return nil
		}

		rel, err := filepath.Rel(o.cfg.LocalRoot, path)
		if err != nil {
			return err
		}

		// rel names the content file itself (<file>/<file>); the entry
		// observed during the walk, and the unit Archive/DeleteOriginal
		// operate on, is its parent per-file directory.
		dirRel := norm.NFC.String(filepath.ToSlash(filepath.Dir(rel)))

		if _, ok := normalizedObserved[dirRel]; ok {
			return nil
		}

		o.logger.Info("archiving unobserved local file", slog.String("path", dirRel))

		if err := archive.Archive(dirRel); err != nil {
			return err
		}

		if o.cfg.Prune {
			return archive.DeleteOriginal(dirRel)
		}

		return nil
	})
}
