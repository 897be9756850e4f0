package series

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// NotifyPool is a bounded notification dispatcher: writers submit one
// wakeup callback per subscriber, and the pool bounds how many run
// concurrently so a slow subscriber callback cannot stall the writer's
// publish path or exhaust goroutines under a notification storm. Built
// on golang.org/x/sync/errgroup's SetLimit. Exported so
// seriessorted.Container can use it rather than hand-rolling dispatch.
type NotifyPool struct {
	g *errgroup.Group
}

// NewNotifyPool returns a pool bounding concurrent dispatch to
// maxConcurrent goroutines; maxConcurrent <= 0 defaults to
// runtime.GOMAXPROCS(0)*4.
func NewNotifyPool(maxConcurrent int) *NotifyPool {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0) * 4
	}
	g := &errgroup.Group{}
	g.SetLimit(maxConcurrent)
	return &NotifyPool{g: g}
}

// Submit runs task on the pool, blocking the caller only long enough
// to acquire a pool slot (never waiting for task itself to finish).
func (p *NotifyPool) Submit(task func()) {
	p.g.Go(func() error {
		task()
		return nil
	})
}
