// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runq

// Chain is a transient intrusive list of fibers, linked in place through
// the fiber schedlink field. It is built on the producer's stack, handed
// to GlobalQueue.Push or Ring.BulkPush, and never retained.
//
// The zero value is an empty chain.
//
// A fiber may be in at most one chain at a time. Chain methods are not
// safe for concurrent use; a chain is owned by exactly one goroutine
// until it is handed off.
type Chain struct {
	first *Fiber
	last  *Fiber
	size  int
}

// makeChain wraps an already-linked run of fibers. first reaches last via
// schedlink and last terminates the run; size is the number of fibers.
func makeChain(first, last *Fiber, size int) Chain {
	last.schedlink = nil
	return Chain{first: first, last: last, size: size}
}

// Empty reports whether the chain holds no fibers.
func (c *Chain) Empty() bool {
	return c.first == nil
}

// Len returns the number of fibers in the chain.
func (c *Chain) Len() int {
	return c.size
}

// PushBack appends f to the tail of the chain.
func (c *Chain) PushBack(f *Fiber) {
	f.schedlink = nil
	if c.last == nil {
		c.first = f
	} else {
		c.last.schedlink = f
	}
	c.last = f
	c.size++
}

// Pop removes and returns the fiber at the head of the chain.
// Returns nil if the chain is empty.
func (c *Chain) Pop() *Fiber {
	f := c.first
	if f == nil {
		return nil
	}
	c.first = f.schedlink
	if c.first == nil {
		c.last = nil
	}
	f.schedlink = nil
	c.size--
	return f
}

// Concat moves all fibers from other to the tail of c, leaving other
// empty. Links are spliced; no fiber is visited.
func (c *Chain) Concat(other *Chain) {
	if other.first == nil {
		return
	}
	if c.last == nil {
		*c = *other
	} else {
		c.last.schedlink = other.first
		c.last = other.last
		c.size += other.size
	}
	*other = Chain{}
}
