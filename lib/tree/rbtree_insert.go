package tree

import (
	"github.com/benz9527/rbzip/lib/infra"
)

// writeToken marks the nodes a writer may overwrite in place.
// It must not be zero sized, distinct tokens need distinct addresses.
type writeToken struct {
	_ byte
}

// writer runs one insertion at a time. A persistent writer has a nil
// token and allocates every node it rebuilds. A builder's writer owns
// a token and recycles the nodes carrying it.
type writer[K infra.Integer, V any] struct {
	token     *writeToken
	root      *rbNode[K, V]
	zip       zipper[K, V]
	overwrite bool
}

func (w *writer[K, V]) owns(n *rbNode[K, V]) *rbNode[K, V] {
	if w.token == nil || n == nil || n.owner != w.token {
		return nil
	}
	return n
}

func (w *writer[K, V]) node(reuse *rbNode[K, V], color RBColor, l *rbNode[K, V], key K, val V, r *rbNode[K, V]) *rbNode[K, V] {
	if reuse == nil {
		reuse = &rbNode[K, V]{owner: w.token}
	}
	reuse.color, reuse.left, reuse.key, reuse.val, reuse.right = color, l, key, val, r
	return reuse
}

func (w *writer[K, V]) attach(f frame[K, V], color RBColor, child *rbNode[K, V]) *rbNode[K, V] {
	if f.side == Left {
		return w.node(f.reuse, color, child, f.key, f.val, f.sibling)
	}
	return w.node(f.reuse, color, f.sibling, f.key, f.val, child)
}

// insert returns the new root and whether key was absent.
func (w *writer[K, V]) insert(root *rbNode[K, V], key K, val V) (*rbNode[K, V], bool) {
	w.root = root
	defer func() {
		w.root = nil
	}()

	// Descent.
	for x := root; x != nil; {
		if key < x.key {
			w.zip.wentLeft(x, w.owns(x))
			x = x.left
		} else if key > x.key {
			w.zip.wentRight(x, w.owns(x))
			x = x.right
		} else {
			if !w.overwrite {
				// Keep the old value. Rebuilding the path would only
				// yield a copy equal to root.
				w.zip.reset()
				return root, false
			}
			return w.moveUp(w.node(w.owns(x), x.color, x.left, x.key, val, x.right)), false
		}
	}
	return w.balanceRed(nil, key, val, nil, nil), true
}

// moveUp re-attaches the frames from the nearest one to Top around focus.
func (w *writer[K, V]) moveUp(focus *rbNode[K, V]) *rbNode[K, V] {
	for {
		f, ok := w.zip.pop()
		if !ok {
			return focus
		}
		// Owned nodes only hang below owned nodes. If the ancestor is
		// owned and already points at focus, nothing above it changes.
		if f.reuse != nil && f.reuse.child(f.side) == focus {
			w.zip.reset()
			return w.root
		}
		focus = w.attach(f, f.color, focus)
	}
}

/*
balanceRed attaches the red node (l, key, val, r) at the position the zipper
describes and restores the invariants on the way up. reuse is the memory the
red node may occupy, nil to allocate.

<X> is a RED node.
[X] is a BLACK node (or NIL).

Parent P black: attach and move up, terminal.

Parent P red (grandparent G black by invariant), four shapes collapse into
one red-topped subtree with two black children. Its black height equals
the one G had, so the walk continues from G's outer context.

	    [G]          [G]          [G]          [G]
	    /              \          /              \
	  <P>              <P>      <P>              <P>
	  /                /          \                \
	<X>              <X>          <X>              <X>

	                   ====>   <Y>
	                           / \
	                         [a] [b]

Parent P red and no grandparent (P is a red root): paint P black, terminal.
Top: paint the focus black, terminal.
*/
func (w *writer[K, V]) balanceRed(l *rbNode[K, V], key K, val V, r *rbNode[K, V], reuse *rbNode[K, V]) *rbNode[K, V] {
	for {
		p, ok := w.zip.pop()
		if /* Top */ !ok {
			return w.node(reuse, Black, l, key, val, r)
		}
		if p.color == Black {
			return w.moveUp(w.attach(p, Black, w.node(reuse, Red, l, key, val, r)))
		}

		g, ok := w.zip.pop()
		if /* red root */ !ok {
			return w.attach(p, Black, w.node(reuse, Red, l, key, val, r))
		}

		switch {
		case p.side == Right && g.side == Right:
			// g.sibling < G < p.sibling < P < focus
			nl := w.node(g.reuse, Black, g.sibling, g.key, g.val, p.sibling)
			nr := w.node(reuse, Black, l, key, val, r)
			l, key, val, r, reuse = nl, p.key, p.val, nr, p.reuse
		case p.side == Left && g.side == Right:
			// g.sibling < G < focus < P < p.sibling
			nl := w.node(g.reuse, Black, g.sibling, g.key, g.val, l)
			nr := w.node(p.reuse, Black, r, p.key, p.val, p.sibling)
			l, r = nl, nr
		case p.side == Right && g.side == Left:
			// p.sibling < P < focus < G < g.sibling
			nl := w.node(p.reuse, Black, p.sibling, p.key, p.val, l)
			nr := w.node(g.reuse, Black, r, g.key, g.val, g.sibling)
			l, r = nl, nr
		default:
			// focus < P < p.sibling < G < g.sibling
			nl := w.node(reuse, Black, l, key, val, r)
			nr := w.node(g.reuse, Black, p.sibling, g.key, g.val, g.sibling)
			l, key, val, r, reuse = nl, p.key, p.val, nr, p.reuse
		}
	}
}
