// Package t8cmesh is the committed view over a packed lib/t8trees
// arena: it knows how to initialize a boundary-only mesh, verify that
// the face-to-face relation is symmetric, and it owns the ttf
// (tree-to-face) byte encoding the face-neighbor slots share.
package t8cmesh

import (
	"fmt"

	"github.com/datawire/dlib/derror"

	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8ghost"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// Cmesh is a thin, read-mostly wrapper around a finished lib/t8trees
// arena: everything about tree topology (counts, ranges, face
// relation) is computed from trees; Cmesh adds the face-connectivity
// operations that interpret a tree's face-neighbor slots.
//
// Face-neighbor slots use rank-relative addressing: for a tree owned
// by rank p with n local trees, a stored neighbor value in [0, n)
// names another local tree of that same rank, and a value in
// [n, n+numGhosts(p)) names a ghost of that rank at index
// (value - n) — mirroring the "B = ghost_id + num_local_trees"
// transition rule. A neighbor equal to the tree's own rank-relative
// index is a boundary self-loop.
type Cmesh struct {
	Trees *t8trees.Trees

	ghosts *t8ghost.GhostLookup
}

// New wraps a finished trees arena.
func New(trees *t8trees.Trees) *Cmesh {
	ghosts, err := t8ghost.NewGhostLookup(trees)
	if err != nil {
		t8contract.Violationf("t8cmesh: New: %v", err)
	}
	return &Cmesh{Trees: trees, ghosts: ghosts}
}

// SetAllBoundary initializes every face of every tree and ghost as a
// boundary self-loop: tree faces point at the tree's own rank-relative
// index, ghost faces point at the ghost's own global index, and every
// ttf byte encodes orientation 0 at the matching face index.
func (c *Cmesh) SetAllBoundary() {
	for p := 0; p < c.Trees.NumProcs(); p++ {
		first, n := c.Trees.PartTrees(p)
		for i := t8trees.LocalID(0); i < n; i++ {
			l := first + i
			tree := c.Trees.GetTree(l)
			dim := t8eclass.Dim[tree.Class]
			for f := 0; f < t8eclass.NumFaces[tree.Class]; f++ {
				c.Trees.SetTreeFaceNeighbor(l, f, i, EncodeTTF(dim, f, 0))
			}
		}

		gfirst, gn := c.Trees.PartGhosts(p)
		for i := t8trees.LocalID(0); i < gn; i++ {
			lg := gfirst + i
			ghost := c.Trees.GetGhost(lg)
			dim := t8eclass.Dim[ghost.Class]
			for f := 0; f < t8eclass.NumFaces[ghost.Class]; f++ {
				c.Trees.SetGhostFaceNeighbor(lg, f, ghost.Global, EncodeTTF(dim, f, 0))
			}
		}
	}
}

// IsFaceConsistent verifies that every local tree's and ghost's face
// relation is symmetric: if A's face fA points at B with ttf (fB,
// orient), then B's face fB must point back at A with ttf (fA,
// orient). It returns false and a derror.MultiError describing every
// mismatch found; a tree face whose neighbor is an unresolvable remote
// tree (known only by global id, on a ghost, pointing further off-rank
// than this process can see) is skipped, not counted as a failure.
func (c *Cmesh) IsFaceConsistent() (bool, error) {
	var errs derror.MultiError

	for p := 0; p < c.Trees.NumProcs(); p++ {
		first, n := c.Trees.PartTrees(p)
		for i := t8trees.LocalID(0); i < n; i++ {
			l := first + i
			treeA, nbrsA := c.Trees.GetTreeExt(l)
			dimA := t8eclass.Dim[treeA.Class]
			for fA, slot := range nbrsA {
				if slot.Neighbor == int64(i) {
					continue // boundary self-loop
				}
				fB, orient := DecodeTTF(dimA, slot.TTF)
				if slot.Neighbor < int64(n) {
					bLocal := first + t8trees.LocalID(slot.Neighbor)
					treeB, nbrsB := c.Trees.GetTreeExt(bLocal)
					if fB < 0 || fB >= len(nbrsB) {
						errs = append(errs, fmt.Errorf("tree %d face %d: neighbor tree %d has no face %d (class %v)", l, fA, bLocal, fB, treeB.Class))
						continue
					}
					back := nbrsB[fB]
					if back.Neighbor != int64(i) {
						errs = append(errs, fmt.Errorf("tree %d face %d -> tree %d face %d, but that face points at %d, not %d", l, fA, bLocal, fB, back.Neighbor, i))
					}
					backF, backOrient := DecodeTTF(t8eclass.Dim[treeB.Class], back.TTF)
					if backF != fA || backOrient != orient {
						errs = append(errs, fmt.Errorf("tree %d face %d <-> tree %d face %d: ttf mismatch (fA=%d orient=%d) vs (fB=%d orient=%d)", l, fA, bLocal, fB, fA, orient, backF, backOrient))
					}
				} else {
					ghostIdx := t8trees.LocalID(slot.Neighbor) - n
					gfirst, gn := c.Trees.PartGhosts(p)
					if ghostIdx < 0 || ghostIdx >= gn {
						errs = append(errs, fmt.Errorf("tree %d face %d: rank-relative neighbor %d resolves to no local tree or ghost", l, fA, slot.Neighbor))
						continue
					}
					lg := gfirst + ghostIdx
					ghostB, nbrsB := c.Trees.GetGhostExt(lg)
					if fB < 0 || fB >= len(nbrsB) {
						errs = append(errs, fmt.Errorf("tree %d face %d: ghost neighbor has no face %d", l, fA, fB))
						continue
					}
					// A ghost's own face-neighbor targets are global
					// tree ids; A is known to this rank by its global
					// id, which is first(global)+i only when this
					// cmesh has a single, whole-mesh rank numbering
					// (true of the in-process loopback t8comm this
					// module targets).
					aGlobal := t8trees.GlobalID(int64(first) + int64(i))
					back := nbrsB[fB]
					if t8trees.GlobalID(back.Neighbor) != aGlobal {
						errs = append(errs, fmt.Errorf("tree %d face %d -> ghost %d face %d, but that face points at global %d, not %d", l, fA, lg, fB, back.Neighbor, aGlobal))
					}
					backF, backOrient := DecodeTTF(t8eclass.Dim[ghostB.Class], back.TTF)
					if backF != fA || backOrient != orient {
						errs = append(errs, fmt.Errorf("tree %d face %d <-> ghost %d face %d: ttf mismatch (fA=%d orient=%d) vs (fB=%d orient=%d)", l, fA, lg, fB, fA, orient, backF, backOrient))
					}
				}
			}
		}

		gfirst, gn := c.Trees.PartGhosts(p)
		for i := t8trees.LocalID(0); i < gn; i++ {
			lg := gfirst + i
			ghost, nbrs := c.Trees.GetGhostExt(lg)
			dim := t8eclass.Dim[ghost.Class]
			for fA, slot := range nbrs {
				if t8trees.GlobalID(slot.Neighbor) == ghost.Global {
					continue // boundary self-loop
				}
				fB, orient := DecodeTTF(dim, slot.TTF)
				targetGlobal := t8trees.GlobalID(slot.Neighbor)

				if owner, ok := c.resolveGlobal(targetGlobal); ok {
					treeB, nbrsB := c.Trees.GetTreeExt(owner)
					if fB < 0 || fB >= len(nbrsB) {
						errs = append(errs, fmt.Errorf("ghost %d face %d: target tree %d has no face %d (class %v)", lg, fA, owner, fB, treeB.Class))
						continue
					}
					back := nbrsB[fB]
					ownerP := c.Trees.ProcOfTree(owner)
					bFirst, bn := c.Trees.PartTrees(ownerP)
					bgFirst, bgn := c.Trees.PartGhosts(ownerP)
					var backGlobal t8trees.GlobalID
					switch {
					case back.Neighbor >= 0 && back.Neighbor < int64(bn):
						backGlobal = t8trees.GlobalID(int64(bFirst) + back.Neighbor)
					case back.Neighbor >= int64(bn) && back.Neighbor < int64(bn)+int64(bgn):
						backGlobal = c.Trees.GetGhost(bgFirst + t8trees.LocalID(back.Neighbor) - bn).Global
					default:
						errs = append(errs, fmt.Errorf("ghost %d face %d: target tree %d's back-reference %d is out of range", lg, fA, owner, back.Neighbor))
						continue
					}
					if backGlobal != ghost.Global {
						errs = append(errs, fmt.Errorf("ghost %d face %d -> tree %d face %d, but that face points at global %d, not %d", lg, fA, owner, fB, backGlobal, ghost.Global))
					}
					backF, backOrient := DecodeTTF(t8eclass.Dim[treeB.Class], back.TTF)
					if backF != fA || backOrient != orient {
						errs = append(errs, fmt.Errorf("ghost %d face %d <-> tree %d face %d: ttf mismatch (fA=%d orient=%d) vs (fB=%d orient=%d)", lg, fA, owner, fB, fA, orient, backF, backOrient))
					}
				} else if lg2, ok := c.ghosts.Resolve(targetGlobal); ok {
					ghostB, nbrsB := c.Trees.GetGhostExt(lg2)
					if fB < 0 || fB >= len(nbrsB) {
						errs = append(errs, fmt.Errorf("ghost %d face %d: target ghost %d has no face %d (class %v)", lg, fA, lg2, fB, ghostB.Class))
						continue
					}
					back := nbrsB[fB]
					if t8trees.GlobalID(back.Neighbor) != ghost.Global {
						errs = append(errs, fmt.Errorf("ghost %d face %d -> ghost %d face %d, but that face points at global %d, not %d", lg, fA, lg2, fB, back.Neighbor, ghost.Global))
						continue
					}
					backF2, backOrient2 := DecodeTTF(t8eclass.Dim[ghostB.Class], back.TTF)
					if backF2 != fA || backOrient2 != orient {
						errs = append(errs, fmt.Errorf("ghost %d face %d <-> ghost %d face %d: ttf mismatch (fA=%d orient=%d) vs (fB=%d orient=%d)", lg, fA, lg2, fB, fA, orient, backF2, backOrient2))
					}
				}
				// else: a remote tree this process cannot resolve; not
				// a failure, per the face-consistency check's contract.
			}
		}
	}

	if errs != nil {
		return false, errs
	}
	return true, nil
}

// resolveGlobal finds the local tree owning global tree id g, if any
// rank's local range covers it. This in-process reference
// implementation keeps every rank's data resident, so "local tree" and
// "global tree" share one flat numbering; a real distributed cmesh
// would only resolve g when g falls in its own rank's range.
func (c *Cmesh) resolveGlobal(g t8trees.GlobalID) (t8trees.LocalID, bool) {
	l := t8trees.LocalID(g)
	if l < 0 || l >= c.Trees.NumTrees() {
		return 0, false
	}
	return l, true
}

// ResolveGlobalTree is resolveGlobal exported for other components
// (package t8forest's balance driver) that need to turn a ghost's
// global neighbor id into a local tree id under the same in-process,
// flat-numbering simplification documented on resolveGlobal.
func (c *Cmesh) ResolveGlobalTree(g t8trees.GlobalID) (t8trees.LocalID, bool) {
	return c.resolveGlobal(g)
}

// ResolveRankRelative turns a face-neighbor value stored on tree treeL
// (rank-relative: a local-tree index below num_local_trees, or
// num_local_trees+ghost_index above it) into the local tree id it
// names, or ok=false if it is a boundary self-loop or does not resolve.
func (c *Cmesh) ResolveRankRelative(treeL t8trees.LocalID, nbr int64) (t8trees.LocalID, bool) {
	p := c.Trees.ProcOfTree(treeL)
	first, n := c.Trees.PartTrees(p)
	if nbr < int64(n) {
		local := first + t8trees.LocalID(nbr)
		if local == treeL {
			return 0, false
		}
		return local, true
	}
	ghostIdx := t8trees.LocalID(nbr) - n
	gfirst, gn := c.Trees.PartGhosts(p)
	if ghostIdx < 0 || ghostIdx >= gn {
		return 0, false
	}
	ghost := c.Trees.GetGhost(gfirst + ghostIdx)
	return c.resolveGlobal(ghost.Global)
}

// FaceConsistencyReport renders a consistency failure for logging or a
// test assertion. It panics if ok is true (there is nothing to report).
func FaceConsistencyReport(ok bool, err error) string {
	if ok {
		t8contract.Violationf("t8cmesh: FaceConsistencyReport: mesh is consistent, nothing to report")
	}
	return err.Error()
}
