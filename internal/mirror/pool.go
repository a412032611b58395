package mirror

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkerLimit is the maximum number of dispatcher goroutines RunPool will
// start regardless of the requested worker count.
const WorkerLimit = 4

// RunPool drains queue concurrently across min(workers, WorkerLimit)
// goroutines, each repeatedly calling dispatcher.MaybeDrain. Parallelism is
// purely a matter of how many goroutines call MaybeDrain against the same
// mutex-guarded queue; a single-worker pool behaves identically to calling
// MaybeDrain directly. An active-worker counter prevents a goroutine from
// exiting on a momentarily-empty queue while a sibling is mid-requeue.
func RunPool(ctx context.Context, dispatcher *BatchDispatcher, queue *PendingQueue, workers int) error {
	if workers > WorkerLimit {
		workers = WorkerLimit
	}

	if workers < 1 {
		workers = 1
	}

	var active int32

	g, gctx := errgroup.WithContext(ctx)

	for range workers {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				if queue.Len() == 0 && atomic.LoadInt32(&active) == 0 {
					return nil
				}

				atomic.AddInt32(&active, 1)
				err := dispatcher.MaybeDrain(gctx, true)
				atomic.AddInt32(&active, -1)

				if err != nil {
					return err
				}

				if queue.Len() == 0 {
					return nil
				}
			}
		})
	}

	return g.Wait()
}
