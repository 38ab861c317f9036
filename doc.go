// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runq provides the per-worker runnable queue of an M:N fiber
// scheduler: a bounded single-producer multi-consumer lock-free ring,
// a shared mutex-protected overflow queue, and a thin scheduler façade
// that ties them together with work stealing.
//
// Each worker thread owns one [Ring]. The owner pushes runnable fibers
// and pops them in FIFO order; when the ring fills, half of it spills to
// the [GlobalQueue] in one batch, and when it drains, the owner refills
// it from the global queue or steals half of a peer's ring. Stealing and
// overflow intentionally break global FIFO order to preserve throughput.
//
// # Quick Start
//
//	ctx := runq.NewExecutionContext(4, 256)
//
//	// On worker i, owned by exactly one thread:
//	sched := ctx.Scheduler(i)
//	sched.Enqueue(fiber)
//
//	f, err := sched.Next()
//	if err == nil {
//	    resume(f)
//	}
//
// # Layering
//
// The types compose bottom-up and each is usable on its own:
//
//	Fiber            - schedulable handle with an intrusive link field
//	Chain            - transient intrusive fiber list for batch hand-off
//	GlobalQueue      - unbounded mutex-protected overflow FIFO
//	Ring             - bounded lock-free SP/MC runnable ring (the core)
//	Scheduler        - per-worker façade: Enqueue and Next
//	ExecutionContext - workers sharing one global queue
//
// # Ownership Discipline
//
// A Ring has exactly one owner thread. Push, BulkPush, Get and StealFrom
// are owner-only; [Ring.Grab] is the single operation peers may call, and
// it is how StealFrom on another scheduler reaches this ring. Violating
// ownership (two threads pushing to one ring) is undefined behavior, the
// same way violating an SPSC constraint is.
//
// Every fiber is referenced by at most one queue at a time. Transfers
// between ring, global queue and the running worker are atomic in effect:
// a fiber is never observable in two places, and never lost.
//
// # Memory Ordering
//
// head and tail are monotonic 32-bit counters (wrap-around is expected;
// all arithmetic is unsigned modulo 2³²). The ring uses exactly four
// ordering modes from [code.hybscloud.com/atomix]:
//
//   - loads of head/tail that must observe buffer writes: LoadAcquire
//   - stores of tail that publish a slot: StoreRelease
//   - CAS on head that claims slots: CompareAndSwapAcqRel
//   - counter reads of values the caller itself last wrote: LoadRelaxed
//
// A peer that acquire-loads tail = T observes every slot write with index
// below T; a producer that acquire-loads head observes reclaimed capacity.
// Every failed CAS corresponds to a completed competing operation, so all
// ring paths are lock-free. Only the global queue's mutex blocks, and the
// half-ring batching keeps it off the fast paths.
//
// # Error Handling
//
// There is one recoverable outcome: empty, reported as [ErrWouldBlock]
// (sourced from [code.hybscloud.com/iox] for ecosystem consistency).
// Callers interpret it as "try elsewhere":
//
//	f, err := sched.Next()
//	if runq.IsWouldBlock(err) {
//	    // local ring and global queue are empty and no peer could be
//	    // stolen from; park
//	}
//
// Contract breaches (stealing into a ring that has no room left for the
// stolen batch, a broken half-batch in the overflow path) are programming
// errors and panic; they are never returned and never recovered.
//
// # Advisory Emptiness
//
// [Ring.Empty] is two relaxed loads and is advisory only: a peer Grab may
// change the answer between observation and use. The scheduler uses it as
// a pre-theft hint; never use it for synchronization.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships
// established through atomic memory orderings on separate words. The
// owner/stealer protocol here synchronizes buffer access through
// acquire-release on head and tail, which the detector does not track,
// so concurrent steal tests report false positives. Those tests are
// excluded via //go:build !race; see [RaceEnabled].
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomics with explicit
// memory ordering, [code.hybscloud.com/iox] for semantic errors, and
// [code.hybscloud.com/spin] for CPU pause instructions in CAS retry loops.
package runq
