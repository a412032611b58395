package mirror

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driveloom/mirror/internal/gateway"
)

func entry(name string) PendingEntry {
	return PendingEntry{DriveID: "d1", Item: gateway.RemoteItem{ID: name, Name: name}}
}

func TestQueuePushAndTakeBatchPreservesOrder(t *testing.T) {
	q := NewPendingQueue()
	q.Push(entry("a"))
	q.Push(entry("b"))
	q.Push(entry("c"))

	batch := q.TakeBatch(2)
	require.Len(t, batch, 2)
	require.Equal(t, "a", batch[0].Item.Name)
	require.Equal(t, "b", batch[1].Item.Name)
	require.Equal(t, 1, q.Len())
}

func TestQueueTakeBatchLargerThanQueueReturnsAll(t *testing.T) {
	q := NewPendingQueue()
	q.Push(entry("a"))

	batch := q.TakeBatch(20)
	require.Len(t, batch, 1)
	require.Equal(t, 0, q.Len())
}

func TestQueuePrependRestoresHeadOrder(t *testing.T) {
	q := NewPendingQueue()
	q.Push(entry("c"))

	q.Prepend([]PendingEntry{entry("a"), entry("b")})

	batch := q.TakeBatch(3)
	require.Equal(t, []string{"a", "b", "c"}, []string{batch[0].Item.Name, batch[1].Item.Name, batch[2].Item.Name})
}

func TestQueueConcurrentPushIsSafe(t *testing.T) {
	q := NewPendingQueue()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			q.Push(entry("x"))
		}(i)
	}

	wg.Wait()
	require.Equal(t, 100, q.Len())
}
