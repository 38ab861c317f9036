// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq

// ExecutionContext groups a set of worker schedulers around one shared
// global overflow queue. It owns no threads: callers create one context,
// bind each scheduler to a worker of their own, and drive it with
// Enqueue/Next.
type ExecutionContext struct {
	global     *GlobalQueue
	schedulers []*Scheduler
}

// NewExecutionContext creates workers schedulers sharing a fresh global
// queue, each with a local ring of the given capacity.
//
// Capacity rounds up to the next power of 2. Panics if workers < 1 or
// capacity < 2.
func NewExecutionContext(workers, capacity int) *ExecutionContext {
	if workers < 1 {
		panic("runq: workers must be >= 1")
	}

	ctx := &ExecutionContext{
		global:     NewGlobalQueue(),
		schedulers: make([]*Scheduler, workers),
	}
	for i := range ctx.schedulers {
		ctx.schedulers[i] = &Scheduler{
			id:   i,
			ctx:  ctx,
			ring: NewRing(capacity, ctx.global),
		}
	}
	return ctx
}

// Scheduler returns the i-th worker scheduler.
func (ctx *ExecutionContext) Scheduler(i int) *Scheduler {
	return ctx.schedulers[i]
}

// Workers returns the number of schedulers in the context.
func (ctx *ExecutionContext) Workers() int {
	return len(ctx.schedulers)
}

// Global returns the context's shared overflow queue.
func (ctx *ExecutionContext) Global() *GlobalQueue {
	return ctx.global
}

// Scheduler is the per-worker façade over one local ring, the shared
// global queue and the peer rings.
//
// All Scheduler methods are owner-only: exactly one worker thread may
// use a given Scheduler. Peers interact with it solely through the
// ring's Grab, via their own StealFrom.
type Scheduler struct {
	id   int
	ctx  *ExecutionContext
	ring *Ring
}

// Ring returns the scheduler's local ring.
func (s *Scheduler) Ring() *Ring {
	return s.ring
}

// Enqueue makes f runnable on this worker.
// The fiber lands in the local ring, or in the global queue when the
// ring overflows.
func (s *Scheduler) Enqueue(f *Fiber) {
	s.ring.Push(f)
}

// Next returns the next fiber to run.
//
// Sources are tried in order: the local ring, a batch from the global
// queue (the worker's fair share, at least one), then one round-robin
// sweep over the peers stealing half a victim's ring. Returns
// ErrWouldBlock when the local ring and the global queue are empty and
// no peer yields a steal (a peer holding a single fiber yields none);
// parking the worker is the caller's concern.
func (s *Scheduler) Next() (*Fiber, error) {
	if f, err := s.ring.Get(); err == nil {
		return f, nil
	}

	if f, err := s.ctx.global.PopBatch(s.ring, s.share()); err == nil {
		return f, nil
	}

	peers := s.ctx.schedulers
	for i := 1; i < len(peers); i++ {
		victim := peers[(s.id+i)%len(peers)]
		if victim.ring.Empty() {
			continue
		}
		if f, err := s.ring.StealFrom(victim.ring); err == nil {
			return f, nil
		}
	}

	return nil, ErrWouldBlock
}

// share is the number of global-queue fibers this worker may claim in
// one refill: an even split of the current backlog, at least one.
func (s *Scheduler) share() int {
	return s.ctx.global.Len()/len(s.ctx.schedulers) + 1
}
