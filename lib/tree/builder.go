package tree

import (
	"github.com/benz9527/rbzip/lib/infra"
)

// Builder inserts into a tree it exclusively owns, overwriting the
// nodes of the replaced path instead of allocating new ones.
//
// Ownership follows copy-on-write contexts: every node a builder
// allocates carries the builder's token, and only those nodes are
// written in place. Freeze hands the current content out as a Tree
// and switches to a fresh token, so nodes reachable from any
// handed-out Tree are never written again; the builder copies them on
// its next write instead.
//
// A Builder is not safe for concurrent use. The Trees it hands out are.
type Builder[K infra.Integer, V any] struct {
	w     writer[K, V]
	root  *rbNode[K, V]
	count int
}

type BuilderOption[K infra.Integer, V any] func(*Builder[K, V])

// WithBuilderOverwrite makes Insert replace the value of an existing key.
func WithBuilderOverwrite[K infra.Integer, V any]() BuilderOption[K, V] {
	return func(b *Builder[K, V]) {
		b.w.overwrite = true
	}
}

// WithBuilderZipperCapacity presizes the zipper for trees of about n entries.
func WithBuilderZipperCapacity[K infra.Integer, V any](n int) BuilderOption[K, V] {
	return func(b *Builder[K, V]) {
		b.w.zip = newZipper[K, V](n)
	}
}

func NewBuilder[K infra.Integer, V any](opts ...BuilderOption[K, V]) *Builder[K, V] {
	b := &Builder[K, V]{
		w: writer[K, V]{
			token: &writeToken{},
		},
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(b)
	}
	if b.w.zip.frames == nil {
		b.w.zip = newZipper[K, V](1 << 10)
	}
	return b
}

// Thaw starts a builder from t. The nodes of t stay shared and are
// copied the first time the builder rewrites them.
func (t Tree[K, V]) Thaw(opts ...BuilderOption[K, V]) *Builder[K, V] {
	opts = append([]BuilderOption[K, V]{WithBuilderZipperCapacity[K, V](t.count)}, opts...)
	b := NewBuilder[K, V](opts...)
	b.root, b.count = t.root, t.count
	return b
}

// Insert reports whether key was absent.
func (b *Builder[K, V]) Insert(key K, val V) bool {
	root, inserted := b.w.insert(b.root, key, val)
	b.root = root
	if inserted {
		b.count++
	}
	return inserted
}

func (b *Builder[K, V]) Len() int {
	return b.count
}

// Freeze returns the current content as an immutable Tree. The builder
// remains usable.
func (b *Builder[K, V]) Freeze() Tree[K, V] {
	b.w.token = &writeToken{}
	return Tree[K, V]{root: b.root, count: b.count}
}
