package tree

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/rbzip/lib/infra"
)

// rbtree rule validation utilities.

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// Together they bound the height by 2*log2(n+1).

// RedViolationValidate checks p3.
func RedViolationValidate[K infra.Integer, V any](t Tree[K, V]) error {
	var err error
	t.inorder(func(node *rbNode[K, V]) bool {
		if node.isRed() && (node.left.isRed() || node.right.isRed()) {
			err = infra.NewErrorStack(fmt.Sprintf("rbtree red violation at key %d", node.key))
			return false
		}
		return true
	})
	return err
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
	        /  \
	     <8>    [15]
	     / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

Each NIL leaf to root black depth are equal.
*/
func BlackViolationValidate[K infra.Integer, V any](t Tree[K, V]) error {
	type depthNode struct {
		node  *rbNode[K, V]
		depth int
	}
	if t.root == nil {
		return nil
	}

	blackDepth := -1
	stack := make([]depthNode, 0, maxHeight(t.count)+1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, depthNode{t.root, 0})
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if aux.node.isBlack() {
			aux.depth++
		}
		for _, child := range [2]*rbNode[K, V]{aux.node.left, aux.node.right} {
			if child != nil {
				stack = append(stack, depthNode{child, aux.depth})
				continue
			}
			if /* first NIL */ blackDepth < 0 {
				blackDepth = aux.depth
			} else if blackDepth != aux.depth {
				return infra.NewErrorStack(fmt.Sprintf(
					"rbtree black violation at key %d, black depth %d, expected %d",
					aux.node.key, aux.depth, blackDepth,
				))
			}
		}
	}
	return nil
}

// OrderViolationValidate checks that the inorder keys strictly increase
// and that their number matches Len.
func OrderViolationValidate[K infra.Integer, V any](t Tree[K, V]) error {
	var (
		err  error
		prev K
		n    int
	)
	t.inorder(func(node *rbNode[K, V]) bool {
		if n > 0 && node.key <= prev {
			err = infra.NewErrorStack(fmt.Sprintf("rbtree order violation, key %d after %d", node.key, prev))
			return false
		}
		prev = node.key
		n++
		return true
	})
	if err == nil && n != t.count {
		err = infra.NewErrorStack(fmt.Sprintf("rbtree size violation, %d entries, expected %d", n, t.count))
	}
	return err
}

func RootColorValidate[K infra.Integer, V any](t Tree[K, V]) error {
	if t.root.isRed() {
		return infra.NewErrorStack("rbtree root is red")
	}
	return nil
}

// Validate runs all the validations and combines their errors.
func Validate[K infra.Integer, V any](t Tree[K, V]) error {
	return multierr.Combine(
		OrderViolationValidate(t),
		RedViolationValidate(t),
		BlackViolationValidate(t),
		RootColorValidate(t),
	)
}
