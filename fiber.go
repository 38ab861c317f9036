// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq

import "unsafe"

// Fiber is the schedulable unit moved between rings and the global queue.
//
// A Fiber is always referenced by at most one place: a local ring, the
// global queue, a chain in flight, or the code currently running it.
// The queues transfer ownership; they never copy or duplicate fibers.
//
// The zero value is ready to use.
type Fiber struct {
	// schedlink chains fibers into intrusive lists. It is valid only
	// while the fiber is inside a Chain or the global queue, and is
	// owned by whichever queue holds the fiber.
	schedlink *Fiber

	// Data is an opaque payload for the embedding scheduler. The queues
	// never read or write it.
	Data unsafe.Pointer
}
