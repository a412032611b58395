package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/driveloom/mirror/internal/gateway"
)

// MaxRecursionDepth bounds the tree walk's recursion depth. Overflowing it
// is treated as a transport anomaly: the subtree is abandoned and logged,
// not a fatal error for the whole drive.
const MaxRecursionDepth = 64

// childLister is the subset of RemoteGateway the walker depends on.
type childLister interface {
	ListChildren(ctx context.Context, driveID, itemID string) ([]gateway.RemoteItem, error)
}

// TreeWalker recursively enumerates a drive's folder tree, creating local
// directories as it goes and feeding leaf files into a shared pending
// queue (mirrored into the RunLedger for crash recovery).
type TreeWalker struct {
	gw        childLister
	localRoot string
	queue     *PendingQueue
	ledger    *RunLedger
	logger    *slog.Logger

	// drainer is invoked between each folder's children enumeration so the
	// dispatcher can opportunistically drain whole batches while the walk
	// is still in progress. nil disables opportunistic draining.
	drainer func(ctx context.Context)
}

// NewTreeWalker builds a TreeWalker rooted at localRoot, pushing leaf
// entries into queue and mirroring them into ledger.
func NewTreeWalker(gw childLister, localRoot string, queue *PendingQueue, ledger *RunLedger, logger *slog.Logger) *TreeWalker {
	return &TreeWalker{gw: gw, localRoot: localRoot, queue: queue, ledger: ledger, logger: logger}
}

// SetDrainer installs a callback invoked between folders during the walk,
// letting the dispatcher drain whole batches opportunistically rather than
// waiting for the entire tree to be enumerated first.
func (w *TreeWalker) SetDrainer(fn func(ctx context.Context)) {
	w.drainer = fn
}

// Walk recursively enumerates itemID's children within driveID, rooted at
// parentFolderRel (POSIX-style, relative to localRoot).
func (w *TreeWalker) Walk(ctx context.Context, driveID, itemID, parentFolderRel string) error {
	return w.walk(ctx, driveID, itemID, parentFolderRel, 0)
}

func (w *TreeWalker) walk(ctx context.Context, driveID, itemID, parentFolderRel string, depth int) error {
	if depth > MaxRecursionDepth {
		w.logger.Warn("recursion limit exceeded, abandoning subtree",
			slog.String("drive_id", driveID), slog.String("folder", parentFolderRel))

		return nil
	}

	children, err := w.gw.ListChildren(ctx, driveID, itemID)
	if err != nil {
		return fmt.Errorf("mirror: listing children of %s/%s: %w", driveID, itemID, err)
	}

	for _, item := range children {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if item.Name == "" {
			continue
		}

		if item.IsFolder {
			folderRel := joinRel(parentFolderRel, item.Name)

			if err := os.MkdirAll(filepath.Join(w.localRoot, filepath.FromSlash(folderRel)), 0o755); err != nil {
				return fmt.Errorf("%w: creating local folder %s: %w", ErrLocalIO, folderRel, err)
			}

			if err := w.walk(ctx, driveID, item.ID, folderRel, depth+1); err != nil {
				return err
			}

			continue
		}

		entry := PendingEntry{DriveID: driveID, ParentFolderRel: parentFolderRel, Item: item}

		if w.ledger != nil {
			if err := w.ledger.InsertPending(ctx, entry); err != nil {
				return err
			}
		}

		w.queue.Push(entry)
	}

	if w.drainer != nil {
		w.drainer(ctx)
	}

	return nil
}

// joinRel joins a POSIX-style relative path segment, never using
// filepath.Join directly so the ledger and sidecar always record
// forward-slash paths regardless of host OS.
func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}
