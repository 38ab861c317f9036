// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq_test

import (
	"fmt"

	"code.hybscloud.com/runq"
)

// ExampleScheduler demonstrates the per-worker façade: enqueue runnable
// fibers, pull them back in FIFO order.
func ExampleScheduler() {
	ctx := runq.NewExecutionContext(1, 8)
	sched := ctx.Scheduler(0)

	names := map[*runq.Fiber]string{}
	for _, name := range []string{"a", "b", "c"} {
		f := &runq.Fiber{}
		names[f] = name
		sched.Enqueue(f)
	}

	for {
		f, err := sched.Next()
		if err != nil {
			break
		}
		fmt.Println(names[f])
	}

	// Output:
	// a
	// b
	// c
}

// ExampleRing_StealFrom demonstrates work stealing between two rings:
// the thief claims the older half of the victim's fibers and gets one
// of them back to run immediately.
func ExampleRing_StealFrom() {
	g := runq.NewGlobalQueue()
	victim := runq.NewRing(8, g)
	thief := runq.NewRing(8, g)

	names := map[*runq.Fiber]string{}
	for _, name := range []string{"f1", "f2", "f3", "f4"} {
		f := &runq.Fiber{}
		names[f] = name
		victim.Push(f)
	}

	f, _ := thief.StealFrom(victim)
	fmt.Println("stolen to run:", names[f])

	f, _ = thief.Get()
	fmt.Println("stolen queued:", names[f])

	f, _ = victim.Get()
	fmt.Println("victim keeps:", names[f])

	// Output:
	// stolen to run: f2
	// stolen queued: f1
	// victim keeps: f3
}

// ExampleGlobalQueue demonstrates the overflow path: a small ring spills
// half of itself plus the new fiber to the global queue when it fills.
func ExampleGlobalQueue() {
	g := runq.NewGlobalQueue()
	r := runq.NewRing(4, g)

	for range 5 {
		r.Push(&runq.Fiber{})
	}

	fmt.Println("overflowed:", g.Len())

	// Output:
	// overflowed: 3
}
