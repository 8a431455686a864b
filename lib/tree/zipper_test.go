package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZipperFrames(t *testing.T) {
	z := newZipper[int, string](0)
	require.True(t, z.isTop())
	_, ok := z.pop()
	require.False(t, ok)

	l, r := &rbNode[int, string]{key: 1}, &rbNode[int, string]{key: 3}
	parent := &rbNode[int, string]{color: Red, left: l, key: 2, val: "p", right: r}
	z.wentLeft(parent, nil)
	z.wentRight(parent, parent)
	require.Equal(t, 2, z.depth())

	f, ok := z.pop()
	require.True(t, ok)
	require.Equal(t, Right, f.side)
	require.Same(t, l, f.sibling)
	require.Same(t, parent, f.reuse)

	f, ok = z.pop()
	require.True(t, ok)
	require.Equal(t, Left, f.side)
	require.Equal(t, Red, f.color)
	require.Equal(t, 2, f.key)
	require.Equal(t, "p", f.val)
	require.Same(t, r, f.sibling)
	require.Nil(t, f.reuse)
	require.True(t, z.isTop())
}

func TestZipperMoveUp(t *testing.T) {
	w := writer[int, string]{zip: newZipper[int, string](8)}
	focus := &rbNode[int, string]{key: 5}
	require.Same(t, focus, w.moveUp(focus))

	// 10 -> Left -> 7 -> Right -> focus
	n10 := &rbNode[int, string]{key: 10, right: &rbNode[int, string]{key: 12}}
	n7 := &rbNode[int, string]{color: Red, key: 7, left: &rbNode[int, string]{key: 6}}
	w.zip.wentLeft(n10, nil)
	w.zip.wentRight(n7, nil)
	root := w.moveUp(focus)
	require.True(t, w.zip.isTop())
	require.NotSame(t, n10, root)
	require.Equal(t, 10, root.key)
	require.Equal(t, 12, root.right.key)
	require.Equal(t, 7, root.left.key)
	require.Equal(t, Red, root.left.color)
	require.Equal(t, 6, root.left.left.key)
	require.Same(t, focus, root.left.right)
	// The persistent writer never touches the originals.
	require.Nil(t, n10.left)
	require.Nil(t, n7.right)
}

func TestZipperResetDropsReferences(t *testing.T) {
	z := newZipper[int, int](4)
	n := &rbNode[int, int]{key: 1, left: &rbNode[int, int]{}}
	z.wentRight(n, n)
	frames := z.frames[:1]
	z.reset()
	require.True(t, z.isTop())
	require.Nil(t, frames[0].sibling)
	require.Nil(t, frames[0].reuse)
}

func TestMaxHeight(t *testing.T) {
	require.Equal(t, 0, maxHeight(0))
	require.Equal(t, 2, maxHeight(1))
	require.Equal(t, 4, maxHeight(2))
	require.Equal(t, 8, maxHeight(10))
}
