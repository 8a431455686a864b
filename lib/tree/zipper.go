package tree

import (
	"math/bits"

	"github.com/benz9527/rbzip/lib/infra"
)

/*
A zipper is the reversed path from the insertion focus up to the root.
Each frame suppresses one ancestor: the side the walk went, the ancestor's
color and entry, and the untouched sibling subtree.

	          [G]          frames, bottom first:
	          / \            WentLeft(G, sibling=g)
	        <P>  g           WentLeft(P, sibling=p)
	        / \
	    focus  p

An empty stack is Top. The stack is a heap slice instead of a linked list
of frames, so descent and ascent never recurse.
*/
type frame[K infra.Integer, V any] struct {
	sibling *rbNode[K, V]
	// reuse is the ancestor node itself when the writer owns it,
	// otherwise nil and reconstruction must allocate.
	reuse *rbNode[K, V]
	key   K
	val   V
	side  RBDirection
	color RBColor
}

type zipper[K infra.Integer, V any] struct {
	frames []frame[K, V]
}

func newZipper[K infra.Integer, V any](size int) zipper[K, V] {
	return zipper[K, V]{frames: make([]frame[K, V], 0, maxHeight(size)+1)}
}

func (z *zipper[K, V]) isTop() bool {
	return len(z.frames) == 0
}

func (z *zipper[K, V]) depth() int {
	return len(z.frames)
}

func (z *zipper[K, V]) wentLeft(n *rbNode[K, V], reuse *rbNode[K, V]) {
	z.frames = append(z.frames, frame[K, V]{
		side:    Left,
		color:   n.color,
		key:     n.key,
		val:     n.val,
		sibling: n.right,
		reuse:   reuse,
	})
}

func (z *zipper[K, V]) wentRight(n *rbNode[K, V], reuse *rbNode[K, V]) {
	z.frames = append(z.frames, frame[K, V]{
		side:    Right,
		color:   n.color,
		key:     n.key,
		val:     n.val,
		sibling: n.left,
		reuse:   reuse,
	})
}

func (z *zipper[K, V]) pop() (f frame[K, V], ok bool) {
	size := len(z.frames)
	if size == 0 {
		return f, false
	}
	f = z.frames[size-1]
	z.frames[size-1] = frame[K, V]{}
	z.frames = z.frames[:size-1]
	return f, true
}

// reset drains the zipper back to Top and drops the subtree
// references it still holds, keeping the capacity.
func (z *zipper[K, V]) reset() {
	clear(z.frames)
	z.frames = z.frames[:0]
}

// maxHeight rounds the red-black height bound 2*log2(n+1) up for n entries.
func maxHeight(n int) int {
	if n <= 0 {
		return 0
	}
	return 2 * bits.Len(uint(n))
}
