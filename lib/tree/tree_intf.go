package tree

import "github.com/benz9527/rbzip/lib/infra"

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "RBColor(?)"
}

// RBDirection is the side a walk descended from a parent.
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (d RBDirection) String() string {
	switch d {
	case Left:
		return "Left"
	case Root:
		return "Root"
	case Right:
		return "Right"
	default:
	}
	return "RBDirection(?)"
}

// RBNode is a read-only view of a tree node.
// A nil RBNode is the empty tree (leaf), which counts as black.
type RBNode[K infra.Integer, V any] interface {
	Key() K
	Val() V
	Color() RBColor
	Left() RBNode[K, V]
	Right() RBNode[K, V]
}

// RBTree is the read side shared by persistent snapshots.
// Snapshots are immutable, so every method is safe for
// concurrent readers.
type RBTree[K infra.Integer, V any] interface {
	Len() int
	Root() RBNode[K, V]
	Get(key K) (V, bool)
	Foreach(action func(idx int, color RBColor, key K, val V) bool)
}
