package t8forest

import (
	"context"
	"encoding/binary"
	"sort"

	"github.com/datawire/dlib/dlog"

	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8contract"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

const (
	tagPartitionCounts = 10
	tagPartitionElems  = 11
)

// commitPartition reshuffles partitionFrom's whole trees across ranks
// to restore load balance after an uneven adapt pass. Every rank
// already knows which trees exist and their classes (static cmesh
// metadata), but a tree's current element count — and, after an
// earlier repartition round, even which rank currently holds it — is
// only known to the rank that currently has it resident. So the
// reshuffle runs in two phases: an all-to-all counts gather lets every
// rank learn every tree's current element count, then every rank
// independently runs the same deterministic longest-processing-time
// assignment (biggest tree first, onto whichever rank's running total
// is currently smallest) to decide each tree's new owner. Because
// every rank computes the identical assignment from the now-shared
// counts, every Send this function issues for a tree that changed
// hands has a matching Recv on the other side without any handshake.
//
// Trees are always assigned whole: this reshuffle never splits one
// tree's elements across ranks, trading perfectly even balance (a
// single huge tree can only ever sit on one rank) for a model where a
// tree's element array is always exactly one contiguous, intact
// family-respecting sequence no matter how many repartition rounds
// have run.
func (f *Forest) commitPartition(ctx context.Context, g t8comm.Group) error {
	if f.partitionFrom == nil || f.partitionFrom.state != StateCommitted {
		t8contract.Violationf("t8forest: Commit: SetPartition source must be committed")
	}
	src := f.partitionFrom

	numTrees := src.cmesh.Trees.NumTrees()
	classes := make([]t8eclass.Class, numTrees)
	for l := t8trees.LocalID(0); l < numTrees; l++ {
		classes[l] = src.cmesh.Trees.GetTree(l).Class
	}

	// src.trees holds whatever this rank currently has resident, which
	// after an earlier repartition round may no longer match the static
	// cmesh ownership src.LocalTrees() reports, so this always reads
	// src.trees's own keys, never LocalTrees().
	resident := residentTreeIDs(src)
	counts := make([]int, numTrees)
	for _, l := range resident {
		counts[l] = len(src.trees[l].elems)
	}

	size := 1
	rank := f.rank
	if g != nil {
		size = g.Size()
		rank = g.Rank()
		if err := exchangePartitionCounts(ctx, g, resident, src, counts); err != nil {
			return err
		}
	}

	newOwner := assignTreesLPT(counts, size)
	dlog.Debugf(ctx, "t8forest: partition: %d trees, counts=%v, new owners=%v", numTrees, counts, newOwner)

	elemSize := f.scheme.ElementSize()
	sendBuf := make(map[int][]byte, size)

	for _, l := range resident {
		to := newOwner[l]
		te := src.trees[l]
		if to == rank {
			cp := make([]t8scheme.Element, len(te.elems))
			for j, e := range te.elems {
				cp[j] = append(t8scheme.Element(nil), e...)
			}
			f.trees[l] = &treeElems{class: te.class, elems: cp}
			continue
		}
		buf := sendBuf[to]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(l))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(te.elems)))
		for _, e := range te.elems {
			buf = append(buf, e...)
		}
		sendBuf[to] = buf
	}

	if g == nil {
		dlog.Infof(ctx, "t8forest: partition: single-rank, %d local elements", f.NumElements())
		return nil
	}

	for to := 0; to < size; to++ {
		if to == rank {
			continue
		}
		if err := g.Send(ctx, to, tagPartitionElems, sendBuf[to]); err != nil {
			return err
		}
	}
	for from := 0; from < size; from++ {
		if from == rank {
			continue
		}
		data, err := g.Recv(ctx, from, tagPartitionElems)
		if err != nil {
			return err
		}
		off := 0
		for off < len(data) {
			l := t8trees.LocalID(binary.LittleEndian.Uint32(data[off:]))
			cnt := int(binary.LittleEndian.Uint32(data[off+4:]))
			off += 8
			elems := make([]t8scheme.Element, cnt)
			for j := 0; j < cnt; j++ {
				raw := data[off : off+elemSize]
				off += elemSize
				elems[j] = append(t8scheme.Element(nil), raw...)
			}
			f.trees[l] = &treeElems{class: classes[l], elems: elems}
		}
	}
	dlog.Infof(ctx, "t8forest: partition: rank %d now holds %d local elements", rank, f.NumElements())
	return nil
}

// exchangePartitionCounts gives every rank the current element count of
// every tree in the mesh, not just the ones resident on this rank.
// Which trees exist and their classes are static cmesh metadata every
// rank already knows; only the current, possibly-already-repartitioned
// element counts need to cross the wire, one message per ordered
// (sender, receiver) pair.
func exchangePartitionCounts(ctx context.Context, g t8comm.Group, resident []t8trees.LocalID, src *Forest, counts []int) error {
	size := g.Size()
	rank := g.Rank()

	payload := make([]byte, 0, len(resident)*8)
	for _, l := range resident {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(l))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(src.trees[l].elems)))
	}
	for to := 0; to < size; to++ {
		if to == rank {
			continue
		}
		if err := g.Send(ctx, to, tagPartitionCounts, payload); err != nil {
			return err
		}
	}
	for from := 0; from < size; from++ {
		if from == rank {
			continue
		}
		data, err := g.Recv(ctx, from, tagPartitionCounts)
		if err != nil {
			return err
		}
		for off := 0; off+8 <= len(data); off += 8 {
			l := t8trees.LocalID(binary.LittleEndian.Uint32(data[off:]))
			counts[l] = int(binary.LittleEndian.Uint32(data[off+4:]))
		}
	}
	return nil
}

// residentTreeIDs returns the tree ids f.trees currently holds, sorted,
// regardless of whether they match f's static cmesh ownership — after a
// repartition round a forest can hold a different set of trees than
// LocalTrees() would report.
func residentTreeIDs(f *Forest) []t8trees.LocalID {
	out := make([]t8trees.LocalID, 0, len(f.trees))
	for l := range f.trees {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// assignTreesLPT assigns every tree (by index into counts) to one of
// size ranks using longest-processing-time-first bin balancing:
// process trees largest-count first, each landing on whichever rank's
// running total is currently smallest (ties broken toward the lower
// rank index), so every rank, given the same counts, computes the same
// assignment without needing to exchange anything further.
func assignTreesLPT(counts []int, size int) []int {
	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})

	running := make([]int, size)
	owner := make([]int, len(counts))
	for _, l := range order {
		best := 0
		for r := 1; r < size; r++ {
			if running[r] < running[best] {
				best = r
			}
		}
		owner[l] = best
		running[best] += counts[l]
	}
	return owner
}

// commitLoad is not implemented: persisted-form load (spec section
// 4.6's set_load/from_method=load) requires a serialization format for
// a committed forest's element arrays, which is explicitly out of
// scope (section 6: "no wire protocol at the core level").
func (f *Forest) commitLoad() error {
	t8contract.Violationf("t8forest: Commit: set_load is not implemented; forest serialization is out of the core's scope")
	return nil
}
