// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Ring is a bounded single-producer multi-consumer runnable queue.
//
// One worker thread owns the ring: Push, BulkPush, Get and StealFrom are
// owner-only. Any peer may call Grab concurrently to claim half of the
// ring's fibers. When the ring fills, Push migrates half of it plus the
// new fiber to the global overflow queue in one batch.
//
// head and tail are monotonic 32-bit counters with wrap-around; the live
// fiber count is tail-head in unsigned arithmetic and never exceeds the
// capacity. The owner publishes slot writes with a release store of tail;
// consumers claim slots with an acquire-release CAS on head. Slots outside
// [head, tail) hold stale references and are never read.
//
// Memory: n slots (one pointer each) plus an owner-private spill batch of
// n/2+1 slots.
type Ring struct {
	_    pad
	head atomix.Uint32 // next slot to dequeue; CAS by owner and stealers
	_    pad
	tail atomix.Uint32 // next free slot; written only by the owner
	_    pad
	buffer []*Fiber
	mask   uint32
	global *GlobalQueue

	// scratch carries the overflow batch from the ring to the global
	// queue. Owner-only, reused across slow paths.
	scratch []*Fiber
}

// NewRing creates a ring bound to the given global overflow queue.
// Capacity rounds up to the next power of 2.
//
// Panics if capacity < 2 or global is nil.
func NewRing(capacity int, global *GlobalQueue) *Ring {
	if capacity < 2 {
		panic("runq: capacity must be >= 2")
	}
	if global == nil {
		panic("runq: nil global queue")
	}

	n := uint32(roundToPow2(capacity))
	return &Ring{
		buffer:  make([]*Fiber, n),
		mask:    n - 1,
		global:  global,
		scratch: make([]*Fiber, n/2+1),
	}
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buffer)
}

// Empty reports whether the ring looked empty at some instant.
//
// The answer is advisory: a concurrent Grab or owner Push may change it
// before the caller acts on it. Use it only as a hint, never as a
// synchronization point.
func (r *Ring) Empty() bool {
	head := r.head.LoadRelaxed()
	tail := r.tail.LoadRelaxed()
	return tail-head == 0
}

// Push enqueues one fiber (owner only).
//
// The fiber always ends up somewhere: in the ring on the fast path, or in
// the global queue together with half of the ring when the ring is full.
// Push never blocks on ring contention; the overflow path blocks briefly
// on the global queue's mutex.
func (r *Ring) Push(f *Fiber) {
	for {
		head := r.head.LoadAcquire()
		tail := r.tail.LoadAcquire()
		if tail-head < uint32(len(r.buffer)) {
			r.buffer[tail&r.mask] = f
			r.tail.StoreRelease(tail + 1)
			return
		}
		if r.pushSlow(f, head, tail) {
			return
		}
		// The slow path lost its head CAS to a stealer, so the ring has
		// free slots again and the next fast path attempt succeeds.
	}
}

// pushSlow migrates half of the ring plus f to the global queue.
// Called when the ring is full. Reports whether the migration committed.
func (r *Ring) pushSlow(f *Fiber, head, tail uint32) bool {
	n := (tail - head) / 2
	if n != uint32(len(r.buffer)/2) {
		panic("runq: pushSlow on non-full ring")
	}

	for i := uint32(0); i < n; i++ {
		r.scratch[i] = r.buffer[(head+i)&r.mask]
	}
	if !r.head.CompareAndSwapAcqRel(head, head+n) {
		return false
	}
	r.scratch[n] = f

	for i := uint32(0); i < n; i++ {
		r.scratch[i].schedlink = r.scratch[i+1]
	}
	chain := makeChain(r.scratch[0], r.scratch[n], int(n)+1)

	// Drop the scratch references before the global queue takes over;
	// they would otherwise pin the fibers until the next overflow.
	for i := range r.scratch {
		r.scratch[i] = nil
	}

	r.global.Push(&chain)
	return true
}

// BulkPush transfers fibers from chain into the ring in chain order
// (owner only). Fibers that do not fit spill to the global queue as one
// batch. The chain is consumed.
//
// The local fibers are published before the spill so that a stealer
// observing the new tail can claim them while the global queue's mutex
// is being acquired.
func (r *Ring) BulkPush(chain *Chain) {
	tail := r.tail.LoadAcquire()
	head := r.head.LoadRelaxed()

	t := tail
	for !chain.Empty() && t-head < uint32(len(r.buffer)) {
		r.buffer[t&r.mask] = chain.Pop()
		t++
	}
	if t != tail {
		r.tail.StoreRelease(t)
	}

	if !chain.Empty() {
		r.global.Push(chain)
	}
}

// Get dequeues the fiber at the head of the ring (owner only).
// Returns ErrWouldBlock if the ring is empty.
//
// Get races with peer Grab calls on head; every CAS failure means a peer
// claimed the contested slot, so the loop is lock-free.
func (r *Ring) Get() (*Fiber, error) {
	sw := spin.Wait{}
	head := r.head.LoadAcquire()
	for {
		tail := r.tail.LoadRelaxed()
		if tail == head {
			return nil, ErrWouldBlock
		}
		f := r.buffer[head&r.mask]
		if r.head.CompareAndSwapAcqRel(head, head+1) {
			return f, nil
		}
		head = r.head.LoadAcquire()
		sw.Once()
	}
}

// StealFrom claims half of src's fibers into r and returns one of them
// for the caller to run (owner only on r).
//
// r must be empty and distinct from src; stealing into a non-empty ring
// is a caller contract breach. StealFrom panics if src is r, or if r's
// live fibers plus the stolen fibers it keeps reach r's capacity; a
// non-empty r that still has room for the batch is not detected.
// Returns ErrWouldBlock if nothing could be stolen (src holds fewer
// than two fibers).
//
// When exactly one fiber is stolen it is returned without publishing a
// new tail, so the ring stays empty for external observers.
func (r *Ring) StealFrom(src *Ring) (*Fiber, error) {
	if r == src {
		panic("runq: StealFrom self")
	}

	tail := r.tail.LoadAcquire()
	n := src.Grab(r.buffer, tail)
	if n == 0 {
		return nil, ErrWouldBlock
	}

	n--
	f := r.buffer[(tail+n)&r.mask]
	if n == 0 {
		return f, nil
	}

	head := r.head.LoadAcquire()
	if tail-head+n >= uint32(len(r.buffer)) {
		panic("runq: StealFrom on non-empty ring")
	}
	r.tail.StoreRelease(tail + n)
	return f, nil
}

// Grab atomically claims half of the ring's fibers for a peer.
//
// The claimed fibers are copied into dst starting at index dstHead
// (modulo len(dst)); dst and dstHead are owner-private to the calling
// ring. Returns the number of fibers copied: half of the live fibers,
// rounded down, so 0 if the ring holds fewer than two.
//
// Grab is the only method callable from peer threads.
func (r *Ring) Grab(dst []*Fiber, dstHead uint32) uint32 {
	dstMask := uint32(len(dst)) - 1
	sw := spin.Wait{}
	for {
		head := r.head.LoadAcquire()
		tail := r.tail.LoadAcquire()

		n := (tail - head) / 2
		if n == 0 {
			return 0
		}
		if n > uint32(len(r.buffer)/2) {
			// head and tail are independent words, so a concurrent owner
			// advance between the two loads can produce a phantom
			// overshoot. The pair is inconsistent; reread both.
			sw.Once()
			continue
		}

		for i := uint32(0); i < n; i++ {
			dst[(dstHead+i)&dstMask] = r.buffer[(head+i)&r.mask]
		}
		if r.head.CompareAndSwapAcqRel(head, head+n) {
			return n
		}
		// A competing consumer moved head; the copied batch is stale.
		sw.Once()
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
