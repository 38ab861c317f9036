// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq

import "sync"

// GlobalQueue is the shared overflow queue of an execution context.
//
// It is an unbounded intrusive FIFO protected by a mutex. Rings spill
// half-ring batches into it when they fill, and schedulers refill their
// rings from it in batches, so the lock is acquired once per batch
// rather than once per fiber.
type GlobalQueue struct {
	mu sync.Mutex
	q  Chain
}

// NewGlobalQueue creates an empty global queue.
func NewGlobalQueue() *GlobalQueue {
	return &GlobalQueue{}
}

// Push splices all fibers of chain at the tail of the queue.
// Blocks on the internal mutex; never fails. The chain is consumed.
func (g *GlobalQueue) Push(chain *Chain) {
	if chain.Empty() {
		return
	}
	g.mu.Lock()
	g.q.Concat(chain)
	g.mu.Unlock()
}

// PopBatch pops one fiber for the caller to run and transfers a batch of
// followers into dst, amortizing the lock over the whole refill.
//
// At most max fibers leave the queue, capped at half of dst's capacity
// so a freshly refilled ring keeps room for its owner's pushes. max
// values below 1 are treated as 1.
//
// Returns ErrWouldBlock if the queue is empty. Must be called by dst's
// owner; the transfer lands in dst via BulkPush.
func (g *GlobalQueue) PopBatch(dst *Ring, max int) (*Fiber, error) {
	if max < 1 {
		max = 1
	}
	if half := dst.Cap() / 2; max > half {
		max = half
	}

	g.mu.Lock()
	if g.q.Empty() {
		g.mu.Unlock()
		return nil, ErrWouldBlock
	}
	n := max
	if n > g.q.Len() {
		n = g.q.Len()
	}
	f := g.q.Pop()
	var batch Chain
	for i := 1; i < n; i++ {
		batch.PushBack(g.q.Pop())
	}
	g.mu.Unlock()

	dst.BulkPush(&batch)
	return f, nil
}

// Len returns the exact number of queued fibers.
// Blocks on the internal mutex.
func (g *GlobalQueue) Len() int {
	g.mu.Lock()
	n := g.q.Len()
	g.mu.Unlock()
	return n
}
