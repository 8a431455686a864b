package tree

import (
	"github.com/benz9527/rbzip/lib/infra"
)

type rbNode[K infra.Integer, V any] struct {
	left  *rbNode[K, V]
	right *rbNode[K, V]
	owner *writeToken
	key   K
	val   V
	color RBColor
}

func (node *rbNode[K, V]) Color() RBColor {
	return node.color
}

func (node *rbNode[K, V]) Key() K {
	return node.key
}

func (node *rbNode[K, V]) Val() V {
	return node.val
}

func (node *rbNode[K, V]) Left() RBNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K, V]) Right() RBNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K, V]) child(dir RBDirection) *rbNode[K, V] {
	if dir == Left {
		return node.left
	}
	return node.right
}

func (node *rbNode[K, V]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K, V]) isBlack() bool {
	return node == nil || node.color == Black
}

// Tree is a persistent red-black tree value. The zero value is the
// empty tree. Insert returns a new Tree and leaves the receiver's
// observable content unchanged, so a Tree can be shared with any
// number of readers while a single writer keeps inserting.
type Tree[K infra.Integer, V any] struct {
	root  *rbNode[K, V]
	count int
}

var _ RBTree[int, struct{}] = Tree[int, struct{}]{}

// Empty returns the tree without entries.
func Empty[K infra.Integer, V any]() Tree[K, V] {
	return Tree[K, V]{}
}

func (t Tree[K, V]) Len() int {
	return t.count
}

func (t Tree[K, V]) IsEmpty() bool {
	return t.root == nil
}

func (t Tree[K, V]) Root() RBNode[K, V] {
	if t.root == nil {
		return nil
	}
	return t.root
}

// Insert adds key with val. An existing key keeps its old value,
// see Upsert to replace it.
func (t Tree[K, V]) Insert(key K, val V) Tree[K, V] {
	nt, _ := t.InsertOK(key, val)
	return nt
}

// InsertOK is Insert that also reports whether key was absent.
func (t Tree[K, V]) InsertOK(key K, val V) (Tree[K, V], bool) {
	return t.write(key, val, false)
}

// Upsert adds key with val, replacing the value of an existing key.
func (t Tree[K, V]) Upsert(key K, val V) Tree[K, V] {
	nt, _ := t.write(key, val, true)
	return nt
}

func (t Tree[K, V]) write(key K, val V, overwrite bool) (Tree[K, V], bool) {
	w := writer[K, V]{
		zip:       newZipper[K, V](t.count),
		overwrite: overwrite,
	}
	root, inserted := w.insert(t.root, key, val)
	nt := Tree[K, V]{root: root, count: t.count}
	if inserted {
		nt.count++
	}
	return nt, inserted
}

func (t Tree[K, V]) Get(key K) (V, bool) {
	for x := t.root; x != nil; {
		if key < x.key {
			x = x.left
		} else if key > x.key {
			x = x.right
		} else {
			return x.val, true
		}
	}
	var zero V
	return zero, false
}

func (t Tree[K, V]) Contains(key K) bool {
	_, ok := t.Get(key)
	return ok
}

func (t Tree[K, V]) Min() (key K, val V, ok bool) {
	x := t.root
	if x == nil {
		return key, val, false
	}
	for ; x.left != nil; x = x.left {
	}
	return x.key, x.val, true
}

func (t Tree[K, V]) Max() (key K, val V, ok bool) {
	x := t.root
	if x == nil {
		return key, val, false
	}
	for ; x.right != nil; x = x.right {
	}
	return x.key, x.val, true
}

// Height counts the nodes on the longest root-to-leaf path.
func (t Tree[K, V]) Height() int {
	if t.root == nil {
		return 0
	}
	type levelNode struct {
		node  *rbNode[K, V]
		level int
	}
	height := 0
	stack := make([]levelNode, 0, maxHeight(t.count)+1)
	stack = append(stack, levelNode{t.root, 1})
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if aux.level > height {
			height = aux.level
		}
		if aux.node.left != nil {
			stack = append(stack, levelNode{aux.node.left, aux.level + 1})
		}
		if aux.node.right != nil {
			stack = append(stack, levelNode{aux.node.right, aux.level + 1})
		}
	}
	return height
}

// Inorder traversal to implement the DFS.
func (t Tree[K, V]) Foreach(action func(idx int, color RBColor, key K, val V) bool) {
	idx := 0
	t.inorder(func(node *rbNode[K, V]) bool {
		if !action(idx, node.color, node.key, node.val) {
			return false
		}
		idx++
		return true
	})
}

func (t Tree[K, V]) Keys() []K {
	return Fold(t, make([]K, 0, t.count), func(key K, _ V, keys []K) []K {
		return append(keys, key)
	})
}

// Count returns the number of entries matching pred.
func (t Tree[K, V]) Count(pred func(key K, val V) bool) int {
	return Fold(t, 0, func(key K, val V, n int) int {
		if pred(key, val) {
			return n + 1
		}
		return n
	})
}

func (t Tree[K, V]) inorder(action func(node *rbNode[K, V]) bool) {
	aux := t.root
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, maxHeight(t.count)+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(aux) {
			return
		}
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

// Fold reduces the entries of t in ascending key order.
func Fold[K infra.Integer, V any, B any](t Tree[K, V], init B, combine func(key K, val V, acc B) B) B {
	acc := init
	t.inorder(func(node *rbNode[K, V]) bool {
		acc = combine(node.key, node.val, acc)
		return true
	})
	return acc
}

// FoldRange is Fold restricted to the keys in [lo, hi). Subtrees outside
// the range are never visited.
func FoldRange[K infra.Integer, V any, B any](t Tree[K, V], lo, hi K, init B, combine func(key K, val V, acc B) B) B {
	acc := init
	if t.root == nil || lo >= hi {
		return acc
	}

	stack := make([]*rbNode[K, V], 0, maxHeight(t.count)+1)
	pushLeft := func(aux *rbNode[K, V]) {
		for aux != nil {
			if aux.key < lo {
				aux = aux.right
				continue
			}
			stack = append(stack, aux)
			aux = aux.left
		}
	}

	pushLeft(t.root)
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		if aux.key >= hi {
			break
		}
		stack = stack[:size-1]
		acc = combine(aux.key, aux.val, acc)
		pushLeft(aux.right)
	}
	clear(stack)
	return acc
}
