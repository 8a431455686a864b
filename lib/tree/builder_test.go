package tree

import (
	randv2 "math/rand"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func collectInorder[V any](tree Tree[int, V]) []checkData {
	res := make([]checkData, 0, tree.Len())
	tree.Foreach(func(idx int, color RBColor, key int, val V) bool {
		res = append(res, checkData{color, key})
		return true
	})
	return res
}

func TestBuilderMatchesPersistentInsert(t *testing.T) {
	testcases := []struct {
		name string
		keys []int
	}{
		{"ascending", lo.Range(5000)},
		{"descending", lo.RangeWithSteps(4999, -1, -1)},
		{"random", lo.Shuffle(lo.Range(5000))},
		{"duplicates", lo.Map(lo.Range(5000), func(i int, _ int) int { return randv2.Intn(1000) })},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			b := NewBuilder[int, int]()
			tree := Empty[int, int]()
			for i, k := range tc.keys {
				var inserted bool
				tree, inserted = tree.InsertOK(k, i)
				require.Equal(tt, inserted, b.Insert(k, i))
			}
			frozen := b.Freeze()
			require.Equal(tt, tree.Len(), b.Len())
			require.Equal(tt, tree.Len(), frozen.Len())
			require.Equal(tt, collectInorder(tree), collectInorder(frozen))
			require.NoError(tt, Validate(frozen))
			for _, k := range tc.keys {
				v1, _ := tree.Get(k)
				v2, _ := frozen.Get(k)
				require.Equal(tt, v1, v2)
			}
		})
	}
}

func TestBuilderFrozenSnapshotIsStable(t *testing.T) {
	b := NewBuilder[int, string]()
	for _, k := range lo.Shuffle(lo.Range(1000)) {
		b.Insert(k, "v1")
	}
	snapshot := b.Freeze()
	expected := collectInorder(snapshot)

	for _, k := range lo.Shuffle(lo.Range(3000)) {
		b.Insert(k, "v2")
	}
	second := b.Freeze()

	require.Equal(t, 1000, snapshot.Len())
	require.Equal(t, expected, collectInorder(snapshot))
	require.Equal(t, 1000, snapshot.Count(func(_ int, v string) bool { return v == "v1" }))
	require.NoError(t, Validate(snapshot))

	require.Equal(t, 3000, second.Len())
	require.Equal(t, 2000, second.Count(func(_ int, v string) bool { return v == "v2" }))
	require.NoError(t, Validate(second))
}

func TestBuilderReusesOwnedPath(t *testing.T) {
	b := NewBuilder[int, int]()
	for _, k := range []int{50, 25, 75, 10} {
		b.Insert(k, k)
	}
	root := b.root
	require.Equal(t, 25, root.key)
	// Parent 50 is black, only the new red leaf is allocated and the
	// owned ancestors stay in place.
	require.True(t, b.Insert(30, 30))
	require.Same(t, root, b.root)
	require.Equal(t, 30, b.root.right.left.key)
	require.Equal(t, Red, b.root.right.left.color)

	// Once frozen, the path is copied.
	frozen := b.Freeze()
	require.True(t, b.Insert(60, 60))
	require.NotSame(t, root, b.root)
	require.Same(t, root, frozen.root)
	require.Equal(t, 75, frozen.root.right.right.key)
	require.Equal(t, Red, frozen.root.right.right.color)
	require.Nil(t, frozen.root.right.right.left)
	require.Equal(t, 5, frozen.Len())
	require.NoError(t, Validate(frozen))
	require.NoError(t, Validate(b.Freeze()))
}

func TestBuilderOverwrite(t *testing.T) {
	b := NewBuilder[int, string](WithBuilderOverwrite[int, string]())
	for _, k := range lo.Range(100) {
		b.Insert(k, "old")
	}
	frozen := b.Freeze()
	require.False(t, b.Insert(42, "new"))
	root := b.root
	require.False(t, b.Insert(43, "new"))
	// The root is owned since the copy made for 42.
	require.Same(t, root, b.root)

	latest := b.Freeze()
	v, _ := latest.Get(42)
	require.Equal(t, "new", v)
	v, _ = latest.Get(43)
	require.Equal(t, "new", v)
	v, _ = frozen.Get(42)
	require.Equal(t, "old", v)
	require.Equal(t, 100, latest.Len())
	require.NoError(t, Validate(latest))

	keepOld := NewBuilder[int, string]()
	keepOld.Insert(1, "a")
	require.False(t, keepOld.Insert(1, "b"))
	v, _ = keepOld.Freeze().Get(1)
	require.Equal(t, "a", v)
}

func TestTreeThaw(t *testing.T) {
	tree := Empty[int, int]()
	for _, k := range lo.Shuffle(lo.Range(500)) {
		tree = tree.Insert(k, k)
	}
	expected := collectInorder(tree)

	b := tree.Thaw()
	require.Equal(t, 500, b.Len())
	for _, k := range lo.Range(1000) {
		b.Insert(k, -k)
	}
	require.Equal(t, expected, collectInorder(tree))
	thawed := b.Freeze()
	require.Equal(t, 1000, thawed.Len())
	require.NoError(t, Validate(thawed))
	v, _ := thawed.Get(10)
	require.Equal(t, 10, v)
	v, _ = thawed.Get(700)
	require.Equal(t, -700, v)
}

func BenchmarkBuilder_Serial(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	builder := NewBuilder[int, []byte]()

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		builder.Insert(i, testByBytes)
	}
}

func BenchmarkBuilder_Random(b *testing.B) {
	testByBytes := []byte(`abc`)

	b.StopTimer()
	builder := NewBuilder[int, []byte]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		builder.Insert(rngArr[i], testByBytes)
	}
}
