package t8forest

import (
	"sort"

	"github.com/t8code-go/t8mesh/lib/containers"
	"github.com/t8code-go/t8mesh/lib/t8ghost"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// Ghosts is a forest's ghost layer: for every remote tree that is a
// face-neighbor of one of this rank's local trees, it records the
// tree id and its owning rank, from which Layout builds the
// lib/t8ghost.Exchange routing. Element counts are not recorded.
type Ghosts struct {
	// Order is stable: ghost i's tree id is Trees[i].
	Trees   []t8trees.LocalID
	OwnerOf map[t8trees.LocalID]int
	indexOf map[t8trees.LocalID]int
}

// NumGhosts is the number of distinct remote trees this forest borders.
func (gh *Ghosts) NumGhosts() int { return len(gh.Trees) }

// IndexOf returns the ghost layer's position for a remote tree id. The
// result's OK is false if that tree is not a ghost of this forest.
func (gh *Ghosts) IndexOf(treeL t8trees.LocalID) containers.Optional[int] {
	i, ok := gh.indexOf[treeL]
	return containers.Optional[int]{OK: ok, Val: i}
}

// Layout builds a t8ghost.Exchange layout for a one-element-per-tree
// payload: ghost slot i carries the 0th (representative) element of
// the remote tree gh.Trees[i]. This matches forests built uniformly at
// level 0 over every tree exactly; for a forest with more than one
// element per tree, it carries only the first leaf, a deliberate
// simplification — genuine per-leaf ghost exchange would need a
// leaf-level ghost list keyed by (tree, local leaf index) rather than
// by tree, which this reference ghost layer does not build.
//
// GhostRemoteIndex values assume the caller's buffer lays out its own
// NumLocal region in tree order, one slot per local tree at position
// (tree id - first tree id of the owning rank) — the same contiguous,
// per-rank numbering lib/t8trees partitions trees with, so every rank
// can compute a peer's slot position from cmesh alone.
func (gh *Ghosts) Layout(f *Forest, elemSize int) t8ghost.Layout {
	owners := make([]int, len(gh.Trees))
	indices := make([]int, len(gh.Trees))
	for i, treeL := range gh.Trees {
		owner := gh.OwnerOf[treeL]
		first, _ := f.cmesh.Trees.PartTrees(owner)
		owners[i] = owner
		indices[i] = int(treeL - first)
	}
	_, numLocalTrees := f.cmesh.Trees.PartTrees(f.rank)
	return t8ghost.Layout{
		NumLocal:         int(numLocalTrees),
		ElemSize:         elemSize,
		GhostOwner:       owners,
		GhostRemoteIndex: indices,
	}
}

// buildGhosts walks every local tree's face-neighbor slots and
// collects the distinct remote trees they name (trees owned by a rank
// other than f.rank), recording each one's owning rank.
func buildGhosts(f *Forest) (*Ghosts, error) {
	gh := &Ghosts{
		OwnerOf: map[t8trees.LocalID]int{},
		indexOf: map[t8trees.LocalID]int{},
	}
	seen := containers.NewSet[t8trees.LocalID]()

	for _, l := range f.LocalTrees() {
		_, nbrs := f.cmesh.Trees.GetTreeExt(l)
		for _, nb := range nbrs {
			neighborTree, ok := f.cmesh.ResolveRankRelative(l, nb.Neighbor)
			if !ok {
				continue
			}
			owner := f.cmesh.Trees.ProcOfTree(neighborTree)
			if owner == f.rank || seen.Has(neighborTree) {
				continue
			}
			seen.Insert(neighborTree)
			gh.Trees = append(gh.Trees, neighborTree)
			gh.OwnerOf[neighborTree] = owner
		}
	}
	sort.Slice(gh.Trees, func(i, j int) bool { return gh.Trees[i] < gh.Trees[j] })
	for i, t := range gh.Trees {
		gh.indexOf[t] = i
	}
	return gh, nil
}
