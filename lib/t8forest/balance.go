package t8forest

import (
	"context"
	"sync"

	"github.com/datawire/dlib/dlog"

	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// MeshState is the cross-rank blackboard the balance driver reads
// neighboring trees' current refinement depth from. Because this
// module's lib/t8cmesh keeps every rank's trees resident in one
// process, a real ghost exchange of "my neighbor's level" is
// unnecessary busywork here; MeshState stands in for it so Balance
// still only reads what a genuinely distributed rank could have
// learned by exchanging one integer per boundary tree. Every forest
// built over the same cmesh across a t8comm.Run call should share one
// MeshState.
type MeshState struct {
	mu       sync.RWMutex
	maxLevel map[t8trees.LocalID]int
}

// NewMeshState returns an empty MeshState.
func NewMeshState() *MeshState {
	return &MeshState{maxLevel: map[t8trees.LocalID]int{}}
}

// publish records the maximum element level currently present in each
// of f's local trees.
func (m *MeshState) publish(f *Forest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for l, te := range f.trees {
		ml := 0
		for _, e := range te.elems {
			if lvl := f.scheme.Level(e); lvl > ml {
				ml = lvl
			}
		}
		m.maxLevel[l] = ml
	}
}

// MaxLevel returns the last-published maximum element level of tree l.
func (m *MeshState) MaxLevel(l t8trees.LocalID) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.maxLevel[l]
	return v, ok
}

// Balance drives the forest to 2:1 face-balance: repeated adapt rounds
// using a refine-only predicate that compares each tree's level against
// its face neighbors' last-published maximum level, until a
// logical-AND collective reduction across g reports every rank did
// nothing this round. shared must be the same MeshState every rank's
// forest over this cmesh publishes into and reads from.
//
// This balances at tree granularity (every element of a tree is
// compared against its neighbor trees' last-published maximum level), not at
// individual leaf-face granularity: the Scheme interface this module
// consumes (section 6) does not expose which child ids touch a given
// face, which a leaf-granular half-face-neighbor search needs. Forests
// built uniformly per tree (the common case, and scenario 4) balance
// identically either way.
func (f *Forest) Balance(ctx context.Context, g t8comm.Group, shared *MeshState) error {
	if f.state != StateCommitted {
		t8contract.Violationf("t8forest: Balance: forest must be committed")
	}
	if shared == nil {
		t8contract.Violationf("t8forest: Balance: shared MeshState is required")
	}

	for round := 0; ; round++ {
		shared.publish(f)
		if g != nil {
			if err := g.Barrier(ctx); err != nil {
				return err
			}
		}

		predicate := f.balancePredicate(shared)
		refinedAny := false
		next := make(map[t8trees.LocalID]*treeElems, len(f.trees))
		for l, te := range f.trees {
			out := adaptTree(ctx, f.scheme, te.class, te.elems, predicate, nil, false, f, l)
			if len(out) != len(te.elems) {
				refinedAny = true
				dlog.Tracef(ctx, "t8forest: balance round %d: tree %d grew %d -> %d elements", round, l, len(te.elems), len(out))
			}
			next[l] = &treeElems{class: te.class, elems: out}
		}
		f.trees = next
		shared.publish(f)

		done := !refinedAny
		if g != nil {
			var err error
			done, err = g.AllReduceAnd(ctx, done)
			if err != nil {
				return err
			}
		}
		if done {
			dlog.Infof(ctx, "t8forest: balance converged after %d round(s)", round+1)
			return nil
		}

		if f.balanceRepartition {
			if err := f.repartitionInPlace(ctx, g); err != nil {
				return err
			}
			dlog.Debugf(ctx, "t8forest: balance round %d: repartitioned, now %d local elements", round, f.NumElements())
		}
	}
}

// repartitionInPlace reshuffles f.trees across ranks via commitPartition,
// wiring two throwaway forests around it (one committed, carrying the
// current elements, as commitPartition's required source; one freshly
// initialized, to receive the rebalanced shares) so the existing
// elements-per-rank partitioner can run without commitPartition ever
// needing to merge into an already-populated tree map.
func (f *Forest) repartitionInPlace(ctx context.Context, g t8comm.Group) error {
	src := &Forest{state: StateCommitted, cmesh: f.cmesh, scheme: f.scheme, rank: f.rank, trees: f.trees}
	dst := &Forest{state: StateInitialized, cmesh: f.cmesh, scheme: f.scheme, rank: f.rank, trees: map[t8trees.LocalID]*treeElems{}}
	dst.partitionFrom = src
	if err := dst.commitPartition(ctx, g); err != nil {
		return err
	}
	f.trees = dst.trees
	return nil
}

// IsBalanced reports whether every local element of f already satisfies
// the balance predicate (no face neighbor's published level exceeds its
// own by more than one) — the post-condition a round of Balance should
// leave true, and the check that makes a second Balance call on an
// already-balanced forest a verified no-op.
func (f *Forest) IsBalanced(shared *MeshState) bool {
	if f.state != StateCommitted {
		t8contract.Violationf("t8forest: IsBalanced: forest must be committed")
	}
	if shared == nil {
		t8contract.Violationf("t8forest: IsBalanced: shared MeshState is required")
	}
	shared.publish(f)
	predicate := f.balancePredicate(shared)
	for l, te := range f.trees {
		for _, e := range te.elems {
			if predicate(f, l, 1, []t8scheme.Element{e}) != 0 {
				return false
			}
		}
	}
	return true
}

// balancePredicate refines an element whenever some face-neighbor tree
// (local or ghost) has a published level more than one beyond the
// element's own.
func (f *Forest) balancePredicate(shared *MeshState) Predicate {
	return func(forest *Forest, treeL t8trees.LocalID, _ int, elems []t8scheme.Element) int {
		lvl := f.scheme.Level(elems[0])
		_, nbrs := f.cmesh.Trees.GetTreeExt(treeL)
		for _, nb := range nbrs {
			neighborTree, ok := f.cmesh.ResolveRankRelative(treeL, nb.Neighbor)
			if !ok {
				continue // boundary self-loop
			}
			if ml, known := shared.MaxLevel(neighborTree); known && ml > lvl+1 {
				return 1
			}
		}
		return 0
	}
}
