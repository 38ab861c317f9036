// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/runq"
)

func TestExecutionContextConstruction(t *testing.T) {
	ctx := runq.NewExecutionContext(4, 100)

	if ctx.Workers() != 4 {
		t.Fatalf("Workers: got %d, want 4", ctx.Workers())
	}
	if ctx.Global() == nil {
		t.Fatal("Global: got nil")
	}
	for i := range 4 {
		s := ctx.Scheduler(i)
		if s == nil || s.Ring() == nil {
			t.Fatalf("Scheduler(%d): incomplete", i)
		}
		if s.Ring().Cap() != 128 {
			t.Fatalf("Scheduler(%d) ring cap: got %d, want 128", i, s.Ring().Cap())
		}
	}
}

func TestExecutionContextWorkersPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewExecutionContext(0, 8) did not panic")
		}
	}()
	runq.NewExecutionContext(0, 8)
}

// TestSchedulerLocalFirst: Next drains the local ring in FIFO order
// before touching any other source.
func TestSchedulerLocalFirst(t *testing.T) {
	ctx := runq.NewExecutionContext(2, 8)
	s := ctx.Scheduler(0)
	fs := fibers(3)

	for _, f := range fs {
		s.Enqueue(f)
	}
	// Plant a decoy in the global queue; local work must win.
	decoy := &runq.Fiber{}
	var c runq.Chain
	c.PushBack(decoy)
	ctx.Global().Push(&c)

	for i, want := range fs {
		f, err := s.Next()
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if f != want {
			t.Fatalf("Next(%d): local ring not preferred", i)
		}
	}

	f, err := s.Next()
	if err != nil {
		t.Fatalf("Next after local drain: %v", err)
	}
	if f != decoy {
		t.Fatal("Next after local drain: want the global fiber")
	}
}

// TestSchedulerGlobalRefill: an empty worker pulls a batch, not just one
// fiber, so followers are served from the local ring.
func TestSchedulerGlobalRefill(t *testing.T) {
	ctx := runq.NewExecutionContext(1, 16)
	s := ctx.Scheduler(0)

	var c runq.Chain
	fs := fibers(6)
	for _, f := range fs {
		c.PushBack(f)
	}
	ctx.Global().Push(&c)

	f, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f != fs[0] {
		t.Fatal("Next: want the oldest global fiber first")
	}
	// share = 6/1+1 = 7, clamped to half the ring (8): all six move.
	if got := ctx.Global().Len(); got != 0 {
		t.Fatalf("global queue after refill: got %d fibers, want 0", got)
	}
	for i := 1; i < 6; i++ {
		f, err := s.Next()
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if f != fs[i] {
			t.Fatalf("Next(%d): batch order broken", i)
		}
	}
}

// TestSchedulerSteals: a dry worker takes half of a loaded peer's ring.
func TestSchedulerSteals(t *testing.T) {
	ctx := runq.NewExecutionContext(2, 8)
	busy := ctx.Scheduler(0)
	idle := ctx.Scheduler(1)
	fs := fibers(8)

	for _, f := range fs {
		busy.Enqueue(f)
	}

	f, err := idle.Next()
	if err != nil {
		t.Fatalf("Next on idle worker: %v", err)
	}
	if f != fs[3] {
		t.Fatal("Next: want the newest fiber of the stolen half")
	}

	stolen := []*runq.Fiber{f}
	for {
		f, err := idle.Ring().Get()
		if err != nil {
			break
		}
		stolen = append(stolen, f)
	}
	if len(stolen) != 4 {
		t.Fatalf("stole %d fibers, want 4", len(stolen))
	}

	kept := drain(t, busy.Ring())
	if len(kept) != 4 {
		t.Fatalf("victim kept %d fibers, want 4", len(kept))
	}
	for i := range kept {
		if kept[i] != fs[4+i] {
			t.Fatalf("victim[%d]: wrong fiber after theft", i)
		}
	}
}

// TestSchedulerDry: all sources empty reports ErrWouldBlock and stays
// reusable.
func TestSchedulerDry(t *testing.T) {
	ctx := runq.NewExecutionContext(3, 8)
	s := ctx.Scheduler(1)

	if _, err := s.Next(); !errors.Is(err, runq.ErrWouldBlock) {
		t.Fatalf("Next on dry context: got %v, want ErrWouldBlock", err)
	}

	f := &runq.Fiber{}
	s.Enqueue(f)
	got, err := s.Next()
	if err != nil || got != f {
		t.Fatal("scheduler unusable after dry Next")
	}
}

// TestSchedulerOverflowRoundTrip: pushes beyond the ring capacity land in
// the global queue and come back through Next without loss.
func TestSchedulerOverflowRoundTrip(t *testing.T) {
	ctx := runq.NewExecutionContext(1, 4)
	s := ctx.Scheduler(0)

	fs := fibers(64)
	index := make(map[*runq.Fiber]int, len(fs))
	for i, f := range fs {
		index[f] = i
		s.Enqueue(f)
	}

	seen := make([]bool, len(fs))
	for range fs {
		f, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		i, ok := index[f]
		if !ok {
			t.Fatal("Next returned an unknown fiber")
		}
		if seen[i] {
			t.Fatalf("fiber %d returned twice", i)
		}
		seen[i] = true
	}
	if _, err := s.Next(); !errors.Is(err, runq.ErrWouldBlock) {
		t.Fatal("context not dry after draining every fiber")
	}
}
