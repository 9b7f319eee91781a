// Package t8trees is the per-owner byte-packed arena that backs a
// coarse mesh: one contiguous buffer per owning rank ("part") holding
// fixed-size tree and ghost records, their face-neighbor arrays, and a
// per-tree attribute index plus attribute blob area. Every offset
// inside a part is relative to the record it was computed from, so a
// whole part can be memcpy'd or sent over the wire without any pointer
// fixup.
//
// The construction protocol is strictly ordered:
//
//	Init -> StartPart -> AddTree/AddGhost -> InitAttributes (optional)
//	     -> FinishPart -> AddAttribute (optional) -> (lookups)
//
// Violating that order, or any other caller contract below, is a
// programming error and panics with *t8contract.Violation rather than
// returning an error.
package t8trees

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"sort"

	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
)

// LocalID indexes a tree or a ghost within the whole (multi-part) trees
// structure.
type LocalID int32

// GlobalID identifies a tree across the whole distributed coarse mesh,
// independent of which rank currently owns it.
type GlobalID int64

const (
	neighborAlign = 4

	treeRecordSize = 16 // class(1) + pad(3) + numAttr(4) + faceNbrOff(4) + attrInfoOff(4)
	ghostRecordSize = 16 // class(1) + pad(3) + globalID(8) + faceNbrOff(4)
	attrInfoSize    = 16 // packageID(4) + key(4) + size(4) + offset(4)

	treeClassOff       = 0
	treeNumAttrOff      = 4
	treeFaceNbrOff      = 8
	treeAttrInfoOff     = 12

	ghostClassOff    = 0
	ghostGlobalIDOff = 4
	ghostFaceNbrOff  = 12
)

// ErrAttributeNotFound is returned by GetAttribute when no attribute
// with the requested (packageID, key) exists on the tree. It satisfies
// errors.Is(err, fs.ErrNotExist).
var ErrAttributeNotFound = fmt.Errorf("t8trees: attribute not found: %w", fs.ErrNotExist)

// FaceNeighbor is one decoded face-neighbor slot: the neighbor index,
// and the raw ttf byte package t8cmesh decodes into (face, orientation).
// A tree's slot holds a value relative to the owning part (a tree index
// within the part, or the part's tree count plus a ghost index within
// the part), as package t8cmesh interprets it; a ghost's slot holds a
// global tree id.
type FaceNeighbor struct {
	Neighbor int64 // part-relative index for a tree's slot, GlobalID for a ghost's slot
	TTF      byte
}

// Tree is a read view of one tree record.
type Tree struct {
	Local LocalID
	Class t8eclass.Class
}

// Ghost is a read view of one ghost record.
type Ghost struct {
	Local  LocalID
	Global GlobalID
	Class  t8eclass.Class
}

type part struct {
	rank int

	firstTree LocalID
	numTrees  LocalID

	firstGhost LocalID
	numGhosts  LocalID

	buf []byte

	finished bool

	// construction-time-only bookkeeping, valid between StartPart and
	// the matching FinishPart/AddAttribute calls.
	attrCount   []int32 // per local tree index within this part
	attrTotal   []int32 // total attribute bytes per tree, from InitAttributes
	attrAdded   []int32 // how many AddAttribute calls have landed so far
	blobStart   []int   // absolute offset of this tree's attribute blob
	blobCursor  []int   // bytes written into this tree's blob so far
}

// Trees is the full distributed packed-storage arena: one part per
// owning rank, plus the two dense ownership tables that map a tree or
// ghost's LocalID to the rank that owns its part.
type Trees struct {
	numProcs  int
	numTrees  LocalID
	numGhosts LocalID

	treeToProc  []int
	ghostToProc []int

	parts []*part
}

// Init creates the parts vector and the two zero-initialized ownership
// tables.
func Init(numProcs int, numTrees, numGhosts LocalID) *Trees {
	if numProcs <= 0 {
		t8contract.Violationf("t8trees: Init: numProcs must be positive, got %d", numProcs)
	}
	return &Trees{
		numProcs:    numProcs,
		numTrees:    numTrees,
		numGhosts:   numGhosts,
		treeToProc:  make([]int, numTrees),
		ghostToProc: make([]int, numGhosts),
		parts:       make([]*part, numProcs),
	}
}

// StartPart records p's tree/ghost counts and, if alloc, preallocates
// and zeroes the record region of p's buffer.
func (t *Trees) StartPart(p int, firstTree, nTrees, firstGhost, nGhosts LocalID, alloc bool) {
	t.checkRank(p)
	if t.parts[p] != nil {
		t8contract.Violationf("t8trees: StartPart: part %d already started", p)
	}
	pt := &part{
		rank:       p,
		firstTree:  firstTree,
		numTrees:   nTrees,
		firstGhost: firstGhost,
		numGhosts:  nGhosts,
	}
	if alloc {
		pt.buf = make([]byte, int(nTrees)*treeRecordSize+int(nGhosts)*ghostRecordSize)
	}
	pt.attrCount = make([]int32, nTrees)
	pt.attrTotal = make([]int32, nTrees)
	pt.attrAdded = make([]int32, nTrees)
	for i := LocalID(0); i < nTrees; i++ {
		t.treeToProc[firstTree+i] = p
	}
	for i := LocalID(0); i < nGhosts; i++ {
		t.ghostToProc[firstGhost+i] = p
	}
	t.parts[p] = pt
}

func (t *Trees) checkRank(p int) {
	if p < 0 || p >= t.numProcs {
		t8contract.Violationf("t8trees: rank %d out of range [0,%d)", p, t.numProcs)
	}
}

func (t *Trees) partOf(p int) *part {
	t.checkRank(p)
	pt := t.parts[p]
	if pt == nil {
		t8contract.Violationf("t8trees: part %d was never started", p)
	}
	return pt
}

func (pt *part) treeRecordPos(l LocalID) int {
	idx := l - pt.firstTree
	if idx < 0 || idx >= pt.numTrees {
		t8contract.Violationf("t8trees: local tree %d out of range for part %d", l, pt.rank)
	}
	return int(idx) * treeRecordSize
}

func (pt *part) ghostRecordPos(lg LocalID) int {
	idx := lg - pt.firstGhost
	if idx < 0 || idx >= pt.numGhosts {
		t8contract.Violationf("t8trees: local ghost %d out of range for part %d", lg, pt.rank)
	}
	return int(pt.numTrees)*treeRecordSize + int(idx)*ghostRecordSize
}

// AddTree fills in tree L's class. L's slot must be currently zero.
func (t *Trees) AddTree(l LocalID, p int, class t8eclass.Class) {
	pt := t.partOf(p)
	pos := pt.treeRecordPos(l)
	if pt.buf[pos+treeClassOff] != 0 {
		t8contract.Violationf("t8trees: AddTree: local tree %d already populated", l)
	}
	if !class.Valid() {
		t8contract.Violationf("t8trees: AddTree: invalid class %v", class)
	}
	pt.buf[pos+treeClassOff] = byte(class) + 1 // +1 so class Vertex(0) still reads as "populated"
}

// AddGhost fills in ghost lg's global tree index and class. lg's slot
// must be currently zero.
func (t *Trees) AddGhost(lg LocalID, g GlobalID, p int, class t8eclass.Class) {
	pt := t.partOf(p)
	pos := pt.ghostRecordPos(lg)
	if pt.buf[pos+ghostClassOff] != 0 {
		t8contract.Violationf("t8trees: AddGhost: local ghost %d already populated", lg)
	}
	if !class.Valid() {
		t8contract.Violationf("t8trees: AddGhost: invalid class %v", class)
	}
	pt.buf[pos+ghostClassOff] = byte(class) + 1
	binary.LittleEndian.PutUint64(pt.buf[pos+ghostGlobalIDOff:], uint64(g))
}

func decodeClass(stored byte) t8eclass.Class {
	if stored == 0 {
		t8contract.Violationf("t8trees: record slot was never populated")
	}
	return t8eclass.Class(stored - 1)
}

// InitAttributes stashes the number of attributes and their total byte
// size for tree L, in advance of FinishPart computing the part's final
// layout.
func (t *Trees) InitAttributes(l LocalID, count, totalBytes int) {
	p := t.treeToProc[l]
	pt := t.partOf(p)
	idx := l - pt.firstTree
	pt.attrCount[idx] = int32(count)
	pt.attrTotal[idx] = int32(totalBytes)
}

func align(n, to int) int {
	if r := n % to; r != 0 {
		n += to - r
	}
	return n
}

func neighborBytesPerFace(idxSize int) int { return idxSize + 1 }

// FinishPart performs the part's two-pass layout: face-neighbor blocks are sized and positioned first
// (ghosts, then trees, matching the order the source pass walks them),
// then attribute-info arrays and the attribute blob region are sized
// from the counts InitAttributes recorded. The buffer is grown to its
// final size and the newly added region is zeroed.
func (t *Trees) FinishPart(p int) {
	pt := t.partOf(p)
	if pt.finished {
		t8contract.Violationf("t8trees: FinishPart: part %d already finished", p)
	}

	recordsSize := int(pt.numTrees)*treeRecordSize + int(pt.numGhosts)*ghostRecordSize
	neighborBase := recordsSize
	running := 0

	// Pass A: ghosts, then trees.
	for i := LocalID(0); i < pt.numGhosts; i++ {
		recordPos := int(pt.numTrees)*treeRecordSize + int(i)*ghostRecordSize
		class := decodeClass(pt.buf[recordPos+ghostClassOff])
		offset := neighborBase + running - recordPos
		binary.LittleEndian.PutUint32(pt.buf[recordPos+ghostFaceNbrOff:], uint32(int32(offset)))
		n := t8eclass.NumFaces[class]
		running += align(n*neighborBytesPerFace(8), neighborAlign)
	}
	for i := LocalID(0); i < pt.numTrees; i++ {
		recordPos := int(i) * treeRecordSize
		class := decodeClass(pt.buf[recordPos+treeClassOff])
		offset := neighborBase + running - recordPos
		binary.LittleEndian.PutUint32(pt.buf[recordPos+treeFaceNbrOff:], uint32(int32(offset)))
		n := t8eclass.NumFaces[class]
		running += align(n*neighborBytesPerFace(4), neighborAlign)
	}

	attrBase := neighborBase + running // absolute offset of the attribute-info region

	var numTotalAttrInfos int32
	for i := LocalID(0); i < pt.numTrees; i++ {
		numTotalAttrInfos += pt.attrCount[i]
	}

	pt.blobStart = make([]int, pt.numTrees)
	pt.blobCursor = make([]int, pt.numTrees)
	blobBase := attrBase + int(numTotalAttrInfos)*attrInfoSize

	var runningNumAttr int32
	var runningAttrBytes int
	for i := LocalID(0); i < pt.numTrees; i++ {
		recordPos := int(i) * treeRecordSize
		attrInfoOffset := attrBase - recordPos + int(runningNumAttr)*attrInfoSize
		binary.LittleEndian.PutUint32(pt.buf[recordPos+treeAttrInfoOff:], uint32(int32(attrInfoOffset)))
		binary.LittleEndian.PutUint32(pt.buf[recordPos+treeNumAttrOff:], uint32(pt.attrCount[i]))

		pt.blobStart[i] = blobBase + runningAttrBytes
		runningNumAttr += pt.attrCount[i]
		runningAttrBytes += int(pt.attrTotal[i])
	}

	finalSize := blobBase + runningAttrBytes
	if finalSize > len(pt.buf) {
		grown := make([]byte, finalSize)
		copy(grown, pt.buf)
		pt.buf = grown
	}
	pt.finished = true
}

// AddAttribute writes attribute i (0-indexed, in the order InitAttributes
// promised count attributes) of tree L's attribute list. Attributes of
// one tree must be added in index order; the tree's attribute-info
// array is sorted by (packageID, key) once the last one lands, so
// GetAttribute can binary-search it.
func (t *Trees) AddAttribute(p int, l LocalID, i int, packageID, key int32, data []byte) {
	pt := t.partOf(p)
	if !pt.finished {
		t8contract.Violationf("t8trees: AddAttribute: part %d not finished", p)
	}
	idx := int(l - pt.firstTree)
	if idx < 0 || idx >= int(pt.numTrees) {
		t8contract.Violationf("t8trees: AddAttribute: local tree %d out of range for part %d", l, p)
	}
	if i != int(pt.attrAdded[idx]) {
		t8contract.Violationf("t8trees: AddAttribute: tree %d attribute %d added out of order (expected %d)", l, i, pt.attrAdded[idx])
	}

	recordPos := idx * treeRecordSize
	attrInfoOffset := int(int32(binary.LittleEndian.Uint32(pt.buf[recordPos+treeAttrInfoOff:])))
	infoPos := recordPos + attrInfoOffset + i*attrInfoSize

	pos := pt.blobStart[idx] + pt.blobCursor[idx]
	copy(pt.buf[pos:pos+len(data)], data)

	binary.LittleEndian.PutUint32(pt.buf[infoPos:], uint32(packageID))
	binary.LittleEndian.PutUint32(pt.buf[infoPos+4:], uint32(key))
	binary.LittleEndian.PutUint32(pt.buf[infoPos+8:], uint32(len(data)))
	binary.LittleEndian.PutUint32(pt.buf[infoPos+12:], uint32(int32(pos-recordPos)))

	pt.blobCursor[idx] += len(data)
	pt.attrAdded[idx]++

	if pt.attrAdded[idx] == pt.attrCount[idx] {
		sortAttrInfos(pt.buf, recordPos+attrInfoOffset, int(pt.attrCount[idx]))
	}
}

func sortAttrInfos(buf []byte, base, count int) {
	type entry struct {
		packageID, key, size, offset int32
	}
	entries := make([]entry, count)
	for i := 0; i < count; i++ {
		off := base + i*attrInfoSize
		entries[i] = entry{
			packageID: int32(binary.LittleEndian.Uint32(buf[off:])),
			key:       int32(binary.LittleEndian.Uint32(buf[off+4:])),
			size:      int32(binary.LittleEndian.Uint32(buf[off+8:])),
			offset:    int32(binary.LittleEndian.Uint32(buf[off+12:])),
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].packageID != entries[j].packageID {
			return entries[i].packageID < entries[j].packageID
		}
		return entries[i].key < entries[j].key
	})
	for i, e := range entries {
		off := base + i*attrInfoSize
		binary.LittleEndian.PutUint32(buf[off:], uint32(e.packageID))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(e.key))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(e.size))
		binary.LittleEndian.PutUint32(buf[off+12:], uint32(e.offset))
	}
}

// NumProcs returns the number of ranks t was initialized with.
func (t *Trees) NumProcs() int { return t.numProcs }

// NumTrees returns the total number of trees across every part.
func (t *Trees) NumTrees() LocalID { return t.numTrees }

// NumGhosts returns the total number of ghosts across every part.
func (t *Trees) NumGhosts() LocalID { return t.numGhosts }

// ProcOfTree returns the rank that owns local tree l.
func (t *Trees) ProcOfTree(l LocalID) int { return t.treeToProc[l] }

// ProcOfGhost returns the rank that owns local ghost lg.
func (t *Trees) ProcOfGhost(lg LocalID) int { return t.ghostToProc[lg] }

// PartTrees returns rank p's [first, first+n) range of local tree ids.
func (t *Trees) PartTrees(p int) (first, n LocalID) {
	pt := t.partOf(p)
	return pt.firstTree, pt.numTrees
}

// PartGhosts returns rank p's [first, first+n) range of local ghost ids.
func (t *Trees) PartGhosts(p int) (first, n LocalID) {
	pt := t.partOf(p)
	return pt.firstGhost, pt.numGhosts
}

// GetTree returns a read view of local tree L.
func (t *Trees) GetTree(l LocalID) Tree {
	p := t.treeToProc[l]
	pt := t.partOf(p)
	pos := pt.treeRecordPos(l)
	return Tree{Local: l, Class: decodeClass(pt.buf[pos+treeClassOff])}
}

// GetTreeExt returns GetTree's view plus the tree's decoded
// face-neighbor slice, one entry per face in face-index order.
func (t *Trees) GetTreeExt(l LocalID) (Tree, []FaceNeighbor) {
	p := t.treeToProc[l]
	pt := t.partOf(p)
	pos := pt.treeRecordPos(l)
	class := decodeClass(pt.buf[pos+treeClassOff])
	tree := Tree{Local: l, Class: class}

	nbrOff := int(int32(binary.LittleEndian.Uint32(pt.buf[pos+treeFaceNbrOff:])))
	base := pos + nbrOff
	n := t8eclass.NumFaces[class]
	out := make([]FaceNeighbor, n)
	for f := 0; f < n; f++ {
		slot := base + f*5
		out[f] = FaceNeighbor{
			Neighbor: int64(int32(binary.LittleEndian.Uint32(pt.buf[slot:]))),
			TTF:      pt.buf[slot+4],
		}
	}
	return tree, out
}

// SetTreeFaceNeighbor overwrites face f of local tree L's neighbor
// slot. It is the caller's (t8cmesh's) responsibility to keep both
// sides of a shared face in sync.
func (t *Trees) SetTreeFaceNeighbor(l LocalID, f int, neighbor LocalID, ttf byte) {
	p := t.treeToProc[l]
	pt := t.partOf(p)
	pos := pt.treeRecordPos(l)
	class := decodeClass(pt.buf[pos+treeClassOff])
	if f < 0 || f >= t8eclass.NumFaces[class] {
		t8contract.Violationf("t8trees: SetTreeFaceNeighbor: face %d out of range for class %v", f, class)
	}
	nbrOff := int(int32(binary.LittleEndian.Uint32(pt.buf[pos+treeFaceNbrOff:])))
	slot := pos + nbrOff + f*5
	binary.LittleEndian.PutUint32(pt.buf[slot:], uint32(int32(neighbor)))
	pt.buf[slot+4] = ttf
}

// GetGhost returns a read view of local ghost lg.
func (t *Trees) GetGhost(lg LocalID) Ghost {
	p := t.ghostToProc[lg]
	pt := t.partOf(p)
	pos := pt.ghostRecordPos(lg)
	return Ghost{
		Local:  lg,
		Global: GlobalID(int64(binary.LittleEndian.Uint64(pt.buf[pos+ghostGlobalIDOff:]))),
		Class:  decodeClass(pt.buf[pos+ghostClassOff]),
	}
}

// GetGhostExt returns GetGhost's view plus the ghost's decoded
// face-neighbor slice (neighbors are global tree indices).
func (t *Trees) GetGhostExt(lg LocalID) (Ghost, []FaceNeighbor) {
	p := t.ghostToProc[lg]
	pt := t.partOf(p)
	pos := pt.ghostRecordPos(lg)
	class := decodeClass(pt.buf[pos+ghostClassOff])
	ghost := Ghost{
		Local:  lg,
		Global: GlobalID(int64(binary.LittleEndian.Uint64(pt.buf[pos+ghostGlobalIDOff:]))),
		Class:  class,
	}
	nbrOff := int(int32(binary.LittleEndian.Uint32(pt.buf[pos+ghostFaceNbrOff:])))
	base := pos + nbrOff
	n := t8eclass.NumFaces[class]
	out := make([]FaceNeighbor, n)
	for f := 0; f < n; f++ {
		slot := base + f*9
		out[f] = FaceNeighbor{
			Neighbor: int64(binary.LittleEndian.Uint64(pt.buf[slot:])),
			TTF:      pt.buf[slot+8],
		}
	}
	return ghost, out
}

// FindGhostByGlobal linearly scans every known ghost record for one
// whose global tree id matches g, returning its local ghost id. This is
// the same O(numGhosts) search t8code's own ghost array uses; callers
// resolving many ghosts per pass should front it with a cache (see
// lib/t8ghost.GhostLookup).
func (t *Trees) FindGhostByGlobal(g GlobalID) (LocalID, bool) {
	for lg := LocalID(0); lg < t.numGhosts; lg++ {
		if t.GetGhost(lg).Global == g {
			return lg, true
		}
	}
	return 0, false
}

// SetGhostFaceNeighbor overwrites face f of local ghost lg's neighbor
// slot.
func (t *Trees) SetGhostFaceNeighbor(lg LocalID, f int, neighbor GlobalID, ttf byte) {
	p := t.ghostToProc[lg]
	pt := t.partOf(p)
	pos := pt.ghostRecordPos(lg)
	class := decodeClass(pt.buf[pos+ghostClassOff])
	if f < 0 || f >= t8eclass.NumFaces[class] {
		t8contract.Violationf("t8trees: SetGhostFaceNeighbor: face %d out of range for class %v", f, class)
	}
	nbrOff := int(int32(binary.LittleEndian.Uint32(pt.buf[pos+ghostFaceNbrOff:])))
	slot := pos + nbrOff + f*9
	binary.LittleEndian.PutUint64(pt.buf[slot:], uint64(neighbor))
	pt.buf[slot+8] = ttf
}

// GetAttribute binary-searches tree L's (packageID, key)-sorted
// attribute-info array and returns the matching attribute's bytes, or
// ErrAttributeNotFound.
func (t *Trees) GetAttribute(l LocalID, packageID, key int32) ([]byte, error) {
	p := t.treeToProc[l]
	pt := t.partOf(p)
	pos := pt.treeRecordPos(l)
	count := int(binary.LittleEndian.Uint32(pt.buf[pos+treeNumAttrOff:]))
	if count == 0 {
		return nil, ErrAttributeNotFound
	}
	nbrOff := int(int32(binary.LittleEndian.Uint32(pt.buf[pos+treeAttrInfoOff:])))
	base := pos + nbrOff

	less := func(i int) bool {
		off := base + i*attrInfoSize
		ip := int32(binary.LittleEndian.Uint32(pt.buf[off:]))
		ik := int32(binary.LittleEndian.Uint32(pt.buf[off+4:]))
		if ip != packageID {
			return ip >= packageID
		}
		return ik >= key
	}
	i := sort.Search(count, less)
	if i >= count {
		return nil, ErrAttributeNotFound
	}
	off := base + i*attrInfoSize
	ip := int32(binary.LittleEndian.Uint32(pt.buf[off:]))
	ik := int32(binary.LittleEndian.Uint32(pt.buf[off+4:]))
	if ip != packageID || ik != key {
		return nil, ErrAttributeNotFound
	}
	size := int(binary.LittleEndian.Uint32(pt.buf[off+8:]))
	dataOff := int(int32(binary.LittleEndian.Uint32(pt.buf[off+12:])))
	start := pos + dataOff
	return pt.buf[start : start+size], nil
}

// Size returns the total number of bytes occupied by every part's
// buffer.
func (t *Trees) Size() int {
	total := 0
	for _, pt := range t.parts {
		if pt != nil {
			total += len(pt.buf)
		}
	}
	return total
}

// Clone duplicates t, copying every part's buffer byte for byte.
func (t *Trees) Clone() *Trees {
	out := &Trees{
		numProcs:    t.numProcs,
		numTrees:    t.numTrees,
		numGhosts:   t.numGhosts,
		treeToProc:  append([]int(nil), t.treeToProc...),
		ghostToProc: append([]int(nil), t.ghostToProc...),
		parts:       make([]*part, len(t.parts)),
	}
	for i, pt := range t.parts {
		if pt == nil {
			continue
		}
		cp := *pt
		cp.buf = append([]byte(nil), pt.buf...)
		out.parts[i] = &cp
	}
	return out
}

// Equal reports whether t and other have identical ownership tables,
// part metadata, and byte-for-byte part buffers. It does not require
// the two structures' transient construction-time bookkeeping to
// match, since that state is discarded in practice once every part has
// been finished.
func (t *Trees) Equal(other *Trees) bool {
	if t.numProcs != other.numProcs || t.numTrees != other.numTrees || t.numGhosts != other.numGhosts {
		return false
	}
	if !intsEqual(t.treeToProc, other.treeToProc) || !intsEqual(t.ghostToProc, other.ghostToProc) {
		return false
	}
	if len(t.parts) != len(other.parts) {
		return false
	}
	for i := range t.parts {
		a, b := t.parts[i], other.parts[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a == nil {
			continue
		}
		if a.rank != b.rank || a.firstTree != b.firstTree || a.numTrees != b.numTrees ||
			a.firstGhost != b.firstGhost || a.numGhosts != b.numGhosts {
			return false
		}
		if len(a.buf) != len(b.buf) {
			return false
		}
		for j := range a.buf {
			if a.buf[j] != b.buf[j] {
				return false
			}
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
