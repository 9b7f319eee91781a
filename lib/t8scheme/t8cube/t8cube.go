// Package t8cube is a reference t8scheme.Scheme implementation for the
// four "cube-like" element classes — vertex, line, quad and hex — whose
// children are always the 2^dim orthants of a bisection along every
// axis. Each element is encoded the way p4est/t8code encode quadrants
// and octants: a refinement level plus one anchor coordinate per axis,
// the coordinate being the element's low corner expressed at the finest
// representable resolution (MaxLevel). Linear ids are the Morton
// (Z-order) code of those coordinates.
//
// Triangle, tet, prism and pyramid are not cube-like and have no scheme
// here; a production scheme registry would add a second implementation
// for the simplex classes.
package t8cube

import (
	"fmt"

	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
)

// MaxLevel is the deepest level every cube scheme in this package can
// represent. It is chosen so that a hex's 3-axis Morton id fits in a
// uint64 (3*MaxLevel <= 64).
const MaxLevel = 20

// Scheme implements t8scheme.Scheme for one cube-like element class.
type Scheme struct {
	class t8eclass.Class
	dim   int
	pool  *t8scheme.Pool
}

var _ t8scheme.Scheme = (*Scheme)(nil)

func elementSize(dim int) int { return 1 + 4*dim }

func newScheme(class t8eclass.Class) *Scheme {
	dim := t8eclass.Dim[class]
	return &Scheme{
		class: class,
		dim:   dim,
		pool:  t8scheme.NewPool(elementSize(dim)),
	}
}

// NewVertexScheme returns a Scheme for t8eclass.Vertex (dimension 0).
func NewVertexScheme() *Scheme { return newScheme(t8eclass.Vertex) }

// NewLineScheme returns a Scheme for t8eclass.Line (dimension 1).
func NewLineScheme() *Scheme { return newScheme(t8eclass.Line) }

// NewQuadScheme returns a Scheme for t8eclass.Quad (dimension 2).
func NewQuadScheme() *Scheme { return newScheme(t8eclass.Quad) }

// NewHexScheme returns a Scheme for t8eclass.Hex (dimension 3).
func NewHexScheme() *Scheme { return newScheme(t8eclass.Hex) }

func (s *Scheme) Class() t8eclass.Class { return s.class }
func (s *Scheme) ElementSize() int      { return elementSize(s.dim) }
func (s *Scheme) MaxLevel() int         { return MaxLevel }

func (s *Scheme) New(n int) []t8scheme.Element { return s.pool.Get(n) }
func (s *Scheme) Destroy(e []t8scheme.Element)  { s.pool.Put(e) }

// --- element encoding -------------------------------------------------

func getLevel(e t8scheme.Element) int { return int(e[0]) }

func setLevel(e t8scheme.Element, lvl int) { e[0] = byte(lvl) }

func getCoord(e t8scheme.Element, d int) uint32 {
	off := 1 + 4*d
	return uint32(e[off]) | uint32(e[off+1])<<8 | uint32(e[off+2])<<16 | uint32(e[off+3])<<24
}

func setCoord(e t8scheme.Element, d int, v uint32) {
	off := 1 + 4*d
	e[off] = byte(v)
	e[off+1] = byte(v >> 8)
	e[off+2] = byte(v >> 16)
	e[off+3] = byte(v >> 24)
}

// cellSize returns h, the edge length of a level-lvl cell in MaxLevel
// units.
func cellSize(lvl int) uint32 { return 1 << uint(MaxLevel-lvl) }

func (s *Scheme) checkClass(e t8scheme.Element) {
	if len(e) != s.ElementSize() {
		t8contract.Violationf("t8cube: element has wrong size %d for class %v (want %d)", len(e), s.class, s.ElementSize())
	}
}

// --- contract operations -----------------------------------------------

func (s *Scheme) Level(e t8scheme.Element) int {
	s.checkClass(e)
	return getLevel(e)
}

func (s *Scheme) ChildID(e t8scheme.Element) int {
	s.checkClass(e)
	lvl := getLevel(e)
	if lvl == 0 {
		return 0
	}
	bitpos := uint(MaxLevel - lvl)
	id := 0
	for d := 0; d < s.dim; d++ {
		id |= int((getCoord(e, d)>>bitpos)&1) << uint(d)
	}
	return id
}

func (s *Scheme) Parent(e, out t8scheme.Element) {
	s.checkClass(e)
	s.checkClass(out)
	lvl := getLevel(e)
	if lvl <= 0 {
		t8contract.Violationf("t8cube: Parent: element is already at level 0")
	}
	mask := ^uint32(0)
	if shift := uint(MaxLevel - lvl + 1); shift < 32 {
		mask = ^((uint32(1) << shift) - 1)
	} else {
		mask = 0
	}
	setLevel(out, lvl-1)
	for d := 0; d < s.dim; d++ {
		setCoord(out, d, getCoord(e, d)&mask)
	}
}

func (s *Scheme) Child(e t8scheme.Element, k int, out t8scheme.Element) {
	s.checkClass(e)
	s.checkClass(out)
	numChildren := 1 << uint(s.dim)
	if k < 0 || k >= numChildren {
		t8contract.Violationf("t8cube: Child: child id %d out of range [0,%d)", k, numChildren)
	}
	lvl := getLevel(e)
	if lvl+1 > MaxLevel {
		t8contract.Violationf("t8cube: Child: would exceed MaxLevel %d", MaxLevel)
	}
	half := cellSize(lvl + 1)
	setLevel(out, lvl+1)
	for d := 0; d < s.dim; d++ {
		c := getCoord(e, d)
		if (k>>uint(d))&1 != 0 {
			c += half
		}
		setCoord(out, d, c)
	}
}

func (s *Scheme) Children(e t8scheme.Element, out []t8scheme.Element) {
	s.checkClass(e)
	numChildren := 1 << uint(s.dim)
	if len(out) != numChildren {
		t8contract.Violationf("t8cube: Children: out has %d slots, want %d", len(out), numChildren)
	}
	for k, o := range out {
		s.Child(e, k, o)
	}
}

func (s *Scheme) Sibling(e t8scheme.Element, k int, out t8scheme.Element) {
	s.checkClass(e)
	s.checkClass(out)
	numChildren := 1 << uint(s.dim)
	if k < 0 || k >= numChildren {
		t8contract.Violationf("t8cube: Sibling: sibling id %d out of range [0,%d)", k, numChildren)
	}
	lvl := getLevel(e)
	if lvl == 0 {
		t8contract.Violationf("t8cube: Sibling: the root has no siblings")
	}
	bitpos := uint(MaxLevel - lvl)
	bit := uint32(1) << bitpos
	setLevel(out, lvl)
	for d := 0; d < s.dim; d++ {
		c := getCoord(e, d) &^ bit
		if (k>>uint(d))&1 != 0 {
			c |= bit
		}
		setCoord(out, d, c)
	}
}

func (s *Scheme) NCA(a, b, out t8scheme.Element) {
	s.checkClass(a)
	s.checkClass(b)
	s.checkClass(out)
	minLevel := getLevel(a)
	if l := getLevel(b); l < minLevel {
		minLevel = l
	}
	lvl := minLevel
	for lvl > 0 {
		h := cellSize(lvl)
		mask := ^(h - 1)
		match := true
		for d := 0; d < s.dim; d++ {
			if getCoord(a, d)&mask != getCoord(b, d)&mask {
				match = false
				break
			}
		}
		if match {
			break
		}
		lvl--
	}
	h := cellSize(lvl)
	mask := ^(h - 1)
	setLevel(out, lvl)
	for d := 0; d < s.dim; d++ {
		setCoord(out, d, getCoord(a, d)&mask)
	}
}

func (s *Scheme) IsFamily(elems []t8scheme.Element) bool {
	numChildren := 1 << uint(s.dim)
	if len(elems) != numChildren {
		return false
	}
	lvl := getLevel(elems[0])
	if lvl == 0 {
		return false
	}
	for _, e := range elems {
		s.checkClass(e)
		if getLevel(e) != lvl {
			return false
		}
	}
	parentBuf := make([]byte, s.ElementSize())
	s.Parent(elems[0], parentBuf)
	for i, e := range elems {
		if s.ChildID(e) != i {
			return false
		}
		otherParent := make([]byte, s.ElementSize())
		s.Parent(e, otherParent)
		for j := range parentBuf {
			if parentBuf[j] != otherParent[j] {
				return false
			}
		}
	}
	return true
}

func (s *Scheme) NumFaces(e t8scheme.Element) int {
	return t8eclass.NumFaces[s.class]
}

func (s *Scheme) NumFaceChildren(e t8scheme.Element, f int) int {
	if s.dim == 0 {
		t8contract.Violationf("t8cube: NumFaceChildren: class %v has no faces", s.class)
	}
	return 1 << uint(s.dim-1)
}

// LinearID returns the Morton (Z-order) code of e's anchor, read out to
// `level` bits per axis, most-significant bit first.
func (s *Scheme) LinearID(e t8scheme.Element, level int) uint64 {
	s.checkClass(e)
	if level < getLevel(e) {
		t8contract.Violationf("t8cube: LinearID: level %d is coarser than the element's own level %d", level, getLevel(e))
	}
	if level > MaxLevel {
		t8contract.Violationf("t8cube: LinearID: level %d exceeds MaxLevel %d", level, MaxLevel)
	}
	var id uint64
	for i := 0; i < level; i++ {
		bitpos := uint(MaxLevel - 1 - i)
		for d := 0; d < s.dim; d++ {
			bit := (getCoord(e, d) >> bitpos) & 1
			id = (id << 1) | uint64(bit)
		}
	}
	return id
}

// Boundary fills out with e's boundary descendants of dimension >=
// minDim: for each target dimension d, every way of fixing dim-d of e's
// axes to one of its two extremal values and leaving d axes free
// produces one descendant, laid out with the same coordinate encoding
// restricted to the free axes (so a hex's facet is a quad element, its
// edge a line element, its corner a vertex element). Boundary always
// allocates fresh elements into out rather than reusing any backing
// array out[i] may have had.
func (s *Scheme) Boundary(e t8scheme.Element, minDim int, out []t8scheme.Element) int {
	s.checkClass(e)
	lvl := getLevel(e)
	n := 0
	for targetDim := s.dim - 1; targetDim >= minDim && targetDim >= 0; targetDim-- {
		fixedCount := s.dim - targetDim
		for mask := 0; mask < (1 << uint(s.dim)); mask++ {
			if popcount(mask) != fixedCount {
				continue
			}
			fixedAxes := axesOf(mask, s.dim)
			freeAxes := complementAxes(fixedAxes, s.dim)
			numSigns := 1 << uint(fixedCount)
			for signs := 0; signs < numSigns; signs++ {
				if n >= len(out) {
					t8contract.Violationf("t8cube: Boundary: out has only %d slots", len(out))
				}
				buf := make([]byte, elementSize(targetDim))
				setLevel(buf, lvl)
				for i, axis := range freeAxes {
					setCoord(buf, i, getCoord(e, axis))
				}
				out[n] = buf
				n++
			}
		}
	}
	return n
}

func popcount(x int) int {
	c := 0
	for x != 0 {
		c += x & 1
		x >>= 1
	}
	return c
}

func axesOf(mask, dim int) []int {
	var axes []int
	for d := 0; d < dim; d++ {
		if mask&(1<<uint(d)) != 0 {
			axes = append(axes, d)
		}
	}
	return axes
}

func complementAxes(fixed []int, dim int) []int {
	in := make(map[int]bool, len(fixed))
	for _, a := range fixed {
		in[a] = true
	}
	var axes []int
	for d := 0; d < dim; d++ {
		if !in[d] {
			axes = append(axes, d)
		}
	}
	return axes
}

// String names the scheme for diagnostics.
func (s *Scheme) String() string {
	return fmt.Sprintf("t8cube(%v)", s.class)
}
