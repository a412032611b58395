// Package mirror implements the incremental one-way sync engine: change
// detection against a metadata sidecar, batched metadata resolution,
// streaming download with requeue-on-failure, and versioned archiving of
// replaced or deleted files.
package mirror

import "github.com/driveloom/mirror/internal/gateway"

// PendingEntry is one file awaiting metadata resolution and download.
// ParentFolderRel is a POSIX-style relative path rooted at the drive name
// (e.g. "DriveA/sub/deeper").
type PendingEntry struct {
	DriveID         string
	ParentFolderRel string
	Item            gateway.RemoteItem
}

// FolderRel returns the entry's full relative path including its own name.
func (p PendingEntry) FolderRel() string {
	if p.ParentFolderRel == "" {
		return p.Item.Name
	}

	return p.ParentFolderRel + "/" + p.Item.Name
}

// Key uniquely identifies a PendingEntry for ledger persistence.
func (p PendingEntry) Key() (driveID, parentFolderRel, itemID string) {
	return p.DriveID, p.ParentFolderRel, p.Item.ID
}
