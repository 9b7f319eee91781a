// Package t8scheme defines the abstract per-element-class contract that
// the rest of this module builds on: how big one element is, how to
// walk between parent/child/sibling, how to test a family, and how to
// compute the linear id that gives elements of one tree a stable total
// order at a given level.
//
// Everything here is interpreted by a concrete implementation (such as
// lib/t8scheme/t8cube); this package only fixes the contract and the
// element-lifecycle helper that implementations share.
package t8scheme

import (
	"fmt"

	"git.lukeshu.com/go/typedsync"

	"github.com/t8code-go/t8mesh/lib/t8eclass"
)

// Element is one scheme-owned element, stored as a flat byte buffer
// whose layout and length (ElementSize) are fixed per class. Callers
// must obtain its backing storage from the owning Scheme's New (or
// Pool), and return it with Destroy (or Pool.Put) once it is no longer
// live — a Scheme is free to recycle the bytes.
type Element []byte

// Scheme is the per-class element contract consumed by package
// t8forest. A violation of any "requires" clause
// below is a contract violation (see package t8contract) and is fatal;
// these operations have no error return.
type Scheme interface {
	// Class is the element class this scheme implements.
	Class() t8eclass.Class

	// ElementSize is the fixed byte size of one element of this class.
	ElementSize() int

	// MaxLevel is the deepest refinement level this scheme can encode.
	MaxLevel() int

	// New allocates n zeroed elements, suitable for any other method
	// below to write into.
	New(n int) []Element

	// Destroy releases elements obtained from New. Callers must not use
	// e after Destroy.
	Destroy(e []Element)

	// Level returns e's non-negative refinement level.
	Level(e Element) int

	// ChildID returns e's position, in [0, NumChildren), among its
	// NumChildren(e.Level()-1) siblings. The root (level 0) has child
	// id 0.
	ChildID(e Element) int

	// Parent writes e's parent into out. Requires Level(e) > 0.
	Parent(e, out Element)

	// Child writes e's k-th child into out, k in [0, NumChildren).
	// out.Level() == e.Level()+1.
	Child(e Element, k int, out Element)

	// Children fills out, in child-id order, with all of e's children.
	// len(out) must equal NumChildren for e's class.
	Children(e Element, out []Element)

	// Sibling writes e's k-th same-size sibling into out.
	Sibling(e Element, k int, out Element)

	// NCA writes the nearest common ancestor of a and b into out. a and
	// b must belong to the same tree.
	NCA(a, b, out Element)

	// IsFamily reports whether elems, taken in order, are exactly the
	// NumChildren children of one parent in child-id order.
	IsFamily(elems []Element) bool

	// NumFaces returns e's number of faces; it depends only on e's
	// class, not on e itself.
	NumFaces(e Element) int

	// NumFaceChildren returns how many same-level descendants share
	// face f after one refinement.
	NumFaceChildren(e Element, f int) int

	// Boundary fills out with e's codimension-1 boundary descendants of
	// dimension >= minDim, in implementation-defined but deterministic
	// order, and returns how many were written. len(out) must be at
	// least t8eclass.CountBoundary(e's class, minDim).
	Boundary(e Element, minDim int, out []Element) int

	// LinearID returns e's id in the stable total order that elements
	// of this class have within one tree at the given level. level must
	// be >= Level(e); e is conceptually refined in-place down to level
	// before the id is computed.
	LinearID(e Element, level int) uint64
}

// Pool recycles element buffers for a scheme, the same role
// lib/containers.SlicePool played for node buffers in the source this
// module is descended from, specialized to the fixed per-scheme element
// size instead of a caller-supplied size.
type Pool struct {
	size  int
	inner typedsync.Pool[[]byte]
}

// NewPool returns a Pool of buffers of size elementSize.
func NewPool(elementSize int) *Pool {
	if elementSize <= 0 {
		panic(fmt.Sprintf("t8scheme: NewPool: invalid element size %d", elementSize))
	}
	p := &Pool{size: elementSize}
	p.inner.New = func() []byte {
		return make([]byte, p.size)
	}
	return p
}

// Get returns n zeroed elements, reusing pooled buffers where possible.
func (p *Pool) Get(n int) []Element {
	out := make([]Element, n)
	for i := range out {
		buf, _ := p.inner.Get()
		if len(buf) != p.size {
			buf = make([]byte, p.size)
		}
		for j := range buf {
			buf[j] = 0
		}
		out[i] = Element(buf)
	}
	return out
}

// Put returns elements to the pool. Callers must not use elems after Put.
func (p *Pool) Put(elems []Element) {
	for _, e := range elems {
		if len(e) == p.size {
			p.inner.Put([]byte(e))
		}
	}
}
