package main

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"github.com/t8code-go/t8mesh/lib/t8cmesh"
	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8forest"
	"github.com/t8code-go/t8mesh/lib/t8ghost"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8scheme/t8cube"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

type demoConfig struct {
	numTrees  int
	ranks     int
	level     int
	balance   bool
	recursive bool
}

// buildStripCmesh lays numTrees quadrilateral trees in a closed ring,
// tree i's face 1 joined to tree (i+1)%n's face 3, partitioned evenly
// across ranks in contiguous blocks.
func buildStripCmesh(numTrees, ranks int) *t8cmesh.Cmesh {
	tr := t8trees.Init(ranks, t8trees.LocalID(numTrees), 0)
	per := numTrees / ranks
	extra := numTrees % ranks
	l := t8trees.LocalID(0)
	for p := 0; p < ranks; p++ {
		n := per
		if p < extra {
			n++
		}
		tr.StartPart(p, l, t8trees.LocalID(n), 0, 0, true)
		for i := t8trees.LocalID(0); i < n; i++ {
			tr.AddTree(l+i, p, t8eclass.Quad)
			tr.InitAttributes(l+i, 0, 0)
		}
		tr.FinishPart(p)
		l += t8trees.LocalID(n)
	}

	cm := t8cmesh.New(tr)
	cm.SetAllBoundary()
	for i := 0; i < numTrees; i++ {
		j := (i + 1) % numTrees
		tr.SetTreeFaceNeighbor(t8trees.LocalID(i), 1, t8trees.LocalID(j), t8cmesh.EncodeTTF(2, 3, 0))
		tr.SetTreeFaceNeighbor(t8trees.LocalID(j), 3, t8trees.LocalID(i), t8cmesh.EncodeTTF(2, 1, 0))
	}
	return cm
}

func run(ctx context.Context, cfg demoConfig) error {
	if cfg.numTrees < 1 || cfg.ranks < 1 {
		return fmt.Errorf("t8mesh-demo: --trees and --ranks must be positive")
	}
	cmesh := buildStripCmesh(cfg.numTrees, cfg.ranks)
	ok, err := cmesh.IsFaceConsistent()
	if !ok {
		return fmt.Errorf("t8mesh-demo: built an inconsistent mesh: %w", err)
	}

	shared := t8forest.NewMeshState()

	return t8comm.Run(ctx, cfg.ranks, func(ctx context.Context, g t8comm.Group) error {
		log := dlog.WithField(ctx, "rank", g.Rank())

		uniform := t8forest.Init()
		uniform.SetCmesh(cmesh)
		uniform.SetScheme(t8cube.NewQuadScheme())
		uniform.SetRank(g.Rank())
		uniform.SetLevel(cfg.level)
		if err := uniform.Commit(ctx, g, shared); err != nil {
			return err
		}
		dlog.Infof(log, "built %d uniform leaves at level %d", uniform.NumElements(), cfg.level)

		adapted := t8forest.Init()
		adapted.SetCmesh(cmesh)
		adapted.SetScheme(t8cube.NewQuadScheme())
		adapted.SetAdapt(uniform, oddLinearIDPredicate(uniform.Scheme()), nil, cfg.recursive)
		adapted.SetGhost(true)
		if err := adapted.Commit(ctx, g, shared); err != nil {
			return err
		}
		dlog.Infof(log, "adapted to %d leaves, %d ghost trees", adapted.NumElements(), adapted.Ghosts().NumGhosts())

		if cfg.balance {
			if err := adapted.Balance(ctx, g, shared); err != nil {
				return err
			}
			dlog.Infof(log, "balanced to %d leaves", adapted.NumElements())
		}

		total, err := exchangeLinearIDs(ctx, g, adapted)
		if err != nil {
			return err
		}
		dlog.Infof(log, "ghost exchange of linear ids completed, local buffer %d bytes", total)

		globalCount, err := g.AllReduceSum(ctx, int64(adapted.NumElements()))
		if err != nil {
			return err
		}
		dlog.Infof(log, "global element count across all ranks: %d", globalCount)
		return nil
	})
}

// oddLinearIDPredicate refines an element whenever its linear id at its
// own level is odd and it has not yet reached the scheme's maximum
// level, per scenario 5 of the adaptation test matrix.
func oddLinearIDPredicate(scheme t8scheme.Scheme) t8forest.Predicate {
	return func(forest *t8forest.Forest, treeL t8trees.LocalID, n int, elems []t8scheme.Element) int {
		e := elems[0]
		if scheme.Level(e) >= scheme.MaxLevel() {
			return 0
		}
		if scheme.LinearID(e, scheme.Level(e))%2 == 1 {
			return 1
		}
		return 0
	}
}

// exchangeLinearIDs fills a representative-per-tree ghost buffer with
// each rank's own linear ids and exchanges it, demonstrating
// lib/t8ghost wired against a committed forest's ghost layer.
func exchangeLinearIDs(ctx context.Context, g t8comm.Group, f *t8forest.Forest) (int, error) {
	const elemSize = 8
	layout := f.Ghosts().Layout(f, elemSize)
	buf := make([]byte, (layout.NumLocal+layout.NumGhosts())*elemSize)

	for i, treeL := range f.LocalTrees() {
		elems := f.Elements(treeL)
		if len(elems) == 0 {
			continue
		}
		id := f.Scheme().LinearID(elems[0], f.Scheme().Level(elems[0]))
		putUint64(buf[i*elemSize:], id)
	}

	if err := t8ghost.Exchange(ctx, g, layout, buf); err != nil {
		return 0, err
	}
	return layout.NumLocal * elemSize, nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
