package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driveloom/mirror/internal/gateway"
)

func openTestLedger(t *testing.T) *RunLedger {
	t.Helper()

	l, err := OpenRunLedger(context.Background(), ":memory:", discardLogger())
	require.NoError(t, err)

	t.Cleanup(func() { l.Close() })

	return l
}

func TestLedgerRegisterAndListActiveDrives(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RegisterDrive(ctx, "d1", "DriveA"))

	active, err := l.ListActiveDrives(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "d1", active[0].DriveID)
	require.Equal(t, "DriveA", active[0].DriveName)
}

func TestLedgerDeregisterDriveClearsPendingAndActive(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RegisterDrive(ctx, "d1", "DriveA"))
	require.NoError(t, l.InsertPending(ctx, PendingEntry{
		DriveID: "d1", ParentFolderRel: "DriveA", Item: gateway.RemoteItem{ID: "i1", Name: "f.txt"},
	}))

	require.NoError(t, l.DeregisterDrive(ctx, "d1"))

	active, err := l.ListActiveDrives(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	pending, err := l.LoadPending(ctx, "d1")
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestLedgerInsertAndLoadPendingRoundTrips(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	entry := PendingEntry{
		DriveID:         "d1",
		ParentFolderRel: "DriveA/sub",
		Item:            gateway.RemoteItem{ID: "i1", Name: "f.txt", WebURL: "https://x", CreatedDate: "2026-01-01", Size: 10},
	}

	require.NoError(t, l.InsertPending(ctx, entry))

	loaded, err := l.LoadPending(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, entry.Item.ID, loaded[0].Item.ID)
	require.Equal(t, entry.ParentFolderRel, loaded[0].ParentFolderRel)
	require.Equal(t, entry.Item.Size, loaded[0].Item.Size)
}

func TestLedgerInsertPendingIsIdempotent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	entry := PendingEntry{DriveID: "d1", Item: gateway.RemoteItem{ID: "i1", Name: "f.txt"}}

	require.NoError(t, l.InsertPending(ctx, entry))
	require.NoError(t, l.InsertPending(ctx, entry))

	loaded, err := l.LoadPending(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestLedgerDeletePendingRemovesSingleRow(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	e1 := PendingEntry{DriveID: "d1", Item: gateway.RemoteItem{ID: "i1", Name: "a"}}
	e2 := PendingEntry{DriveID: "d1", Item: gateway.RemoteItem{ID: "i2", Name: "b"}}

	require.NoError(t, l.InsertPending(ctx, e1))
	require.NoError(t, l.InsertPending(ctx, e2))
	require.NoError(t, l.DeletePending(ctx, e1))

	loaded, err := l.LoadPending(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "i2", loaded[0].Item.ID)
}
