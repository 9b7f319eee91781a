// Package t8forest is the committed leaf-element layer over a
// lib/t8cmesh topology: a Forest holds, for each local tree, the
// ordered array of leaf elements that tree currently owns, and drives
// the state machine (init, setters, commit) together with the
// adaptation and balance operations that rewrite those arrays.
package t8forest

import (
	"context"
	"fmt"
	"sync"

	"github.com/datawire/dlib/dlog"

	"github.com/t8code-go/t8mesh/lib/t8cmesh"
	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// State is a Forest's position in the Empty -> Initialized -> Committed
// lifecycle.
type State int

const (
	StateEmpty State = iota
	StateInitialized
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInitialized:
		return "initialized"
	case StateCommitted:
		return "committed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type fromMethod int

const (
	fromNone fromMethod = iota
	fromCopy
	fromAdapt
	fromPartition
	fromLoad
)

// Predicate is the user refine/coarsen decision, called once per
// decision point (and, in recursive adapt, again on derived elements).
// n is t8eclass.NumChildren[class] and elems is a family in child-id
// order when the engine found one behind the cursor, else n is 1 and
// elems holds a single element. A negative return coarsens the family
// (only legal when n == NumChildren[class]); positive refines elems[0];
// zero keeps.
type Predicate func(forest *Forest, treeL t8trees.LocalID, n int, elems []t8scheme.Element) int

// Replace is called whenever adapt refines one element into C children
// or coarsens a family of C into one parent, including intermediate
// steps of a recursive adapt.
type Replace func(forest *Forest, treeL t8trees.LocalID, out, in []t8scheme.Element)

// treeElems is one local tree's leaf-element array plus the class it
// was built from (classes don't change across a tree's lifetime).
type treeElems struct {
	class t8eclass.Class
	elems []t8scheme.Element
}

// Forest is a per-rank view: its trees field only ever holds entries
// for the trees this rank's cmesh partition owns.
type Forest struct {
	mu       sync.Mutex
	state    State
	refcount int32

	cmesh  *t8cmesh.Cmesh
	scheme t8scheme.Scheme
	level  int
	rank   int

	from           fromMethod
	copyFrom       *Forest
	adaptFrom      *Forest
	adaptPredicate Predicate
	adaptReplace   Replace
	adaptRecursive bool
	partitionFrom  *Forest
	forCoarsening  bool
	loadPath       string

	balanceOnCommit    bool
	ghostOnCommit      bool
	balanceRepartition bool

	trees    map[t8trees.LocalID]*treeElems
	userData any

	ghosts *Ghosts
}

// Init returns a new, Empty forest with refcount 1.
func Init() *Forest {
	return &Forest{state: StateEmpty, refcount: 1, trees: map[t8trees.LocalID]*treeElems{}}
}

func (f *Forest) requireNotCommitted(op string) {
	if f.state == StateCommitted {
		t8contract.Violationf("t8forest: %s: forest already committed", op)
	}
	if f.state == StateEmpty {
		f.state = StateInitialized
	}
}

func (f *Forest) requireFromUnset(op string) {
	if f.from != fromNone {
		t8contract.Violationf("t8forest: %s: a from_method (copy/adapt/partition/load) is already set", op)
	}
}

// SetCmesh assigns the topology a forest will be built over.
func (f *Forest) SetCmesh(cmesh *t8cmesh.Cmesh) {
	f.requireNotCommitted("SetCmesh")
	f.cmesh = cmesh
}

// SetScheme assigns the element-class implementation a forest's leaves
// are stored with.
func (f *Forest) SetScheme(scheme t8scheme.Scheme) {
	f.requireNotCommitted("SetScheme")
	f.scheme = scheme
}

// SetLevel assigns the uniform refinement level commit builds when no
// from_method is set.
func (f *Forest) SetLevel(level int) {
	f.requireNotCommitted("SetLevel")
	if level < 0 {
		t8contract.Violationf("t8forest: SetLevel: negative level %d", level)
	}
	f.level = level
}

// SetRank assigns the rank this forest instance represents; it governs
// which of cmesh's trees commit builds locally.
func (f *Forest) SetRank(rank int) {
	f.requireNotCommitted("SetRank")
	f.rank = rank
}

// SetCopy marks commit to duplicate from's committed element arrays.
func (f *Forest) SetCopy(from *Forest) {
	f.requireNotCommitted("SetCopy")
	f.requireFromUnset("SetCopy")
	f.from = fromCopy
	f.copyFrom = from
}

// SetAdapt marks commit to run the adaptation engine (spec section on
// refine/coarsen) against from's committed elements.
func (f *Forest) SetAdapt(from *Forest, predicate Predicate, replace Replace, recursive bool) {
	f.requireNotCommitted("SetAdapt")
	f.requireFromUnset("SetAdapt")
	if predicate == nil {
		t8contract.Violationf("t8forest: SetAdapt: predicate must not be nil")
	}
	f.from = fromAdapt
	f.adaptFrom = from
	f.adaptPredicate = predicate
	f.adaptReplace = replace
	f.adaptRecursive = recursive
}

// SetPartition marks commit to reshuffle from's elements across ranks
// to restore load balance. forCoarsening is recorded on the forest but
// does not affect how commit assigns trees to ranks.
func (f *Forest) SetPartition(from *Forest, forCoarsening bool) {
	f.requireNotCommitted("SetPartition")
	f.requireFromUnset("SetPartition")
	f.from = fromPartition
	f.partitionFrom = from
	f.forCoarsening = forCoarsening
}

// SetLoad records path and marks the forest's source as a load. Loading
// is not implemented: Commit on such a forest panics with a contract
// violation.
func (f *Forest) SetLoad(path string) {
	f.requireNotCommitted("SetLoad")
	f.requireFromUnset("SetLoad")
	f.from = fromLoad
	f.loadPath = path
}

// SetBalance requests that commit run the balance driver once the base
// forest is built.
func (f *Forest) SetBalance(enabled bool) {
	f.requireNotCommitted("SetBalance")
	f.balanceOnCommit = enabled
}

// SetGhost requests that commit build the ghost layer once the base
// forest is built.
func (f *Forest) SetGhost(enabled bool) {
	f.requireNotCommitted("SetGhost")
	f.ghostOnCommit = enabled
}

// SetBalanceRepartition requests that Balance repartition the forest
// across ranks between rounds, whenever a round refined something and
// the group as a whole is not yet done balancing.
func (f *Forest) SetBalanceRepartition(enabled bool) {
	f.requireNotCommitted("SetBalanceRepartition")
	f.balanceRepartition = enabled
}

// SetUserData attaches an opaque value to the forest; unlike the other
// setters this is allowed both before and after commit.
func (f *Forest) SetUserData(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userData = v
}

// UserData returns the value last passed to SetUserData, or nil.
func (f *Forest) UserData() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userData
}

// Ref increments the forest's reference count.
func (f *Forest) Ref() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount++
}

// Unref decrements the forest's reference count and reports whether it
// reached zero.
func (f *Forest) Unref() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refcount--
	if f.refcount < 0 {
		t8contract.Violationf("t8forest: Unref: refcount went negative")
	}
	return f.refcount == 0
}

// State reports the forest's lifecycle state.
func (f *Forest) State() State { return f.state }

// Rank reports the rank this forest instance was built for.
func (f *Forest) Rank() int { return f.rank }

// Scheme returns the element-class implementation this forest was
// committed with.
func (f *Forest) Scheme() t8scheme.Scheme { return f.scheme }

// Cmesh returns the topology this forest was committed over.
func (f *Forest) Cmesh() *t8cmesh.Cmesh { return f.cmesh }

// Ghosts returns the forest's ghost layer, or nil if SetGhost(true) was
// never requested before Commit.
func (f *Forest) Ghosts() *Ghosts { return f.ghosts }

// LocalTrees reports the local-tree ids this forest instance owns.
func (f *Forest) LocalTrees() []t8trees.LocalID {
	first, n := f.cmesh.Trees.PartTrees(f.rank)
	out := make([]t8trees.LocalID, n)
	for i := range out {
		out[i] = first + t8trees.LocalID(i)
	}
	return out
}

// Elements returns treeL's current leaf-element array. The returned
// slice is owned by the forest and must not be mutated by the caller.
func (f *Forest) Elements(treeL t8trees.LocalID) []t8scheme.Element {
	te, ok := f.trees[treeL]
	if !ok {
		t8contract.Violationf("t8forest: Elements: tree %d is not local to rank %d", treeL, f.rank)
	}
	return te.elems
}

// NumElements sums the leaf counts of every tree local to this forest.
func (f *Forest) NumElements() int {
	n := 0
	for _, te := range f.trees {
		n += len(te.elems)
	}
	return n
}

// Commit executes the chosen from_method, then builds the ghost layer
// and/or runs balance if those were requested, moving the forest to
// StateCommitted. g provides the process group used by any collective
// step (balance's termination reduction, ghost exchange); it may be nil
// only when neither SetBalance(true) nor SetGhost(true) was called and
// the from_method is not partition.
func (f *Forest) Commit(ctx context.Context, g t8comm.Group, shared *MeshState) error {
	if f.state == StateCommitted {
		t8contract.Violationf("t8forest: Commit: already committed")
	}
	if f.cmesh == nil || f.scheme == nil {
		t8contract.Violationf("t8forest: Commit: cmesh and scheme must be set")
	}

	dlog.Debugf(ctx, "t8forest: committing from %v", f.from)

	switch f.from {
	case fromNone:
		f.commitUniform()
	case fromCopy:
		f.commitCopy()
	case fromAdapt:
		f.commitAdapt(ctx)
	case fromPartition:
		if err := f.commitPartition(ctx, g); err != nil {
			return err
		}
	case fromLoad:
		if err := f.commitLoad(); err != nil {
			return err
		}
	}
	f.state = StateCommitted

	if shared != nil {
		shared.publish(f)
	}

	if f.ghostOnCommit {
		gh, err := buildGhosts(f)
		if err != nil {
			return err
		}
		f.ghosts = gh
		dlog.Debugf(ctx, "t8forest: built ghost layer of %d ghosts", gh.NumGhosts())
	}
	if f.balanceOnCommit {
		if err := f.Balance(ctx, g, shared); err != nil {
			return err
		}
	}
	dlog.Infof(ctx, "t8forest: commit done, %d local elements", f.NumElements())
	return nil
}

func (f *Forest) commitUniform() {
	for _, l := range f.LocalTrees() {
		tree := f.cmesh.Trees.GetTree(l)
		elems := refineUniform(f.scheme, f.level)
		f.trees[l] = &treeElems{class: tree.Class, elems: elems}
	}
}

func (f *Forest) commitCopy() {
	if f.copyFrom == nil || f.copyFrom.state != StateCommitted {
		t8contract.Violationf("t8forest: Commit: SetCopy source must be committed")
	}
	for l, te := range f.copyFrom.trees {
		cp := make([]t8scheme.Element, len(te.elems))
		for i, e := range te.elems {
			cp[i] = append(t8scheme.Element(nil), e...)
		}
		f.trees[l] = &treeElems{class: te.class, elems: cp}
	}
	f.rank = f.copyFrom.rank
}

func (f *Forest) commitAdapt(ctx context.Context) {
	if f.adaptFrom == nil || f.adaptFrom.state != StateCommitted {
		t8contract.Violationf("t8forest: Commit: SetAdapt source must be committed")
	}
	f.rank = f.adaptFrom.rank
	for l, te := range f.adaptFrom.trees {
		out := adaptTree(ctx, f.scheme, te.class, te.elems, f.adaptPredicate, f.adaptReplace, f.adaptRecursive, f.adaptFrom, l)
		f.trees[l] = &treeElems{class: te.class, elems: out}
	}
}

// refineUniform expands a single root element into every leaf of a
// uniform refinement to targetLevel, in child-id-major order.
func refineUniform(scheme t8scheme.Scheme, targetLevel int) []t8scheme.Element {
	cur := scheme.New(1)
	class := scheme.Class()
	c := t8eclass.NumChildren[class]
	for lvl := 0; lvl < targetLevel; lvl++ {
		if c == 0 {
			break // a vertex-class scheme has no refinement
		}
		next := make([]t8scheme.Element, 0, len(cur)*c)
		for _, e := range cur {
			children := scheme.New(c)
			scheme.Children(e, children)
			next = append(next, children...)
		}
		cur = next
	}
	return cur
}
