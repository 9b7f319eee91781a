package t8cmesh

import (
	"io"

	"git.lukeshu.com/go/lowmemjson"

	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// dumpFaceNeighbor is the JSON-friendly shape of a t8trees.FaceNeighbor.
type dumpFaceNeighbor struct {
	Neighbor int64 `json:"neighbor"`
	TTF      byte  `json:"ttf"`
}

// dumpTree is one local tree's class and face-neighbor row in a debug
// dump, rank-relative addressing and all (see the Cmesh doc comment).
type dumpTree struct {
	Local     t8trees.LocalID    `json:"local"`
	Class     t8eclass.Class     `json:"class"`
	Neighbors []dumpFaceNeighbor `json:"neighbors"`
}

// dumpGhost is one local ghost's identity and face-neighbor row.
type dumpGhost struct {
	Local     t8trees.LocalID    `json:"local"`
	Global    t8trees.GlobalID   `json:"global"`
	Class     t8eclass.Class     `json:"class"`
	Neighbors []dumpFaceNeighbor `json:"neighbors"`
}

// dumpProc is one process's local trees and ghosts.
type dumpProc struct {
	Proc   int         `json:"proc"`
	Trees  []dumpTree  `json:"trees"`
	Ghosts []dumpGhost `json:"ghosts"`
}

// DebugDump writes a human-readable JSON rendering of every process's
// local trees' and ghosts' face-neighbor tables to w. It is a diagnostic
// aid only, not the mesh's canonical on-disk form — that stays the
// byte-packed lib/t8trees encoding DebugDump reads from.
func (c *Cmesh) DebugDump(w io.Writer) error {
	procs := make([]dumpProc, 0, c.Trees.NumProcs())
	for p := 0; p < c.Trees.NumProcs(); p++ {
		first, n := c.Trees.PartTrees(p)
		trees := make([]dumpTree, 0, n)
		for i := t8trees.LocalID(0); i < n; i++ {
			l := first + i
			tree, nbrs := c.Trees.GetTreeExt(l)
			trees = append(trees, dumpTree{Local: l, Class: tree.Class, Neighbors: dumpNeighbors(nbrs)})
		}

		gfirst, gn := c.Trees.PartGhosts(p)
		ghosts := make([]dumpGhost, 0, gn)
		for i := t8trees.LocalID(0); i < gn; i++ {
			lg := gfirst + i
			ghost, nbrs := c.Trees.GetGhostExt(lg)
			ghosts = append(ghosts, dumpGhost{Local: lg, Global: ghost.Global, Class: ghost.Class, Neighbors: dumpNeighbors(nbrs)})
		}

		procs = append(procs, dumpProc{Proc: p, Trees: trees, Ghosts: ghosts})
	}

	return lowmemjson.NewEncoder(w).Encode(procs)
}

func dumpNeighbors(nbrs []t8trees.FaceNeighbor) []dumpFaceNeighbor {
	out := make([]dumpFaceNeighbor, len(nbrs))
	for i, n := range nbrs {
		out[i] = dumpFaceNeighbor{Neighbor: n.Neighbor, TTF: n.TTF}
	}
	return out
}
