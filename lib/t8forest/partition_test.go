package t8forest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8cmesh"
	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8eclass"
	"github.com/t8code-go/t8mesh/lib/t8forest"
	"github.com/t8code-go/t8mesh/lib/t8scheme"
	"github.com/t8code-go/t8mesh/lib/t8scheme/t8cube"
	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// fourTreeTwoRankCmesh gives rank 0 trees 0 and 1, rank 1 trees 2 and
// 3, with no face joins beyond the default boundary self-loops:
// SetPartition doesn't consult face-neighbor topology, only counts.
func fourTreeTwoRankCmesh(t *testing.T) *t8cmesh.Cmesh {
	t.Helper()
	tr := t8trees.Init(2, 4, 0)
	tr.StartPart(0, 0, 2, 0, 0, true)
	tr.AddTree(0, 0, t8eclass.Quad)
	tr.AddTree(1, 0, t8eclass.Quad)
	tr.InitAttributes(0, 0, 0)
	tr.InitAttributes(1, 0, 0)
	tr.FinishPart(0)
	tr.StartPart(1, 2, 2, 0, 0, true)
	tr.AddTree(2, 1, t8eclass.Quad)
	tr.AddTree(3, 1, t8eclass.Quad)
	tr.InitAttributes(2, 0, 0)
	tr.InitAttributes(3, 0, 0)
	tr.FinishPart(1)

	cm := t8cmesh.New(tr)
	cm.SetAllBoundary()
	return cm
}

// TestSetPartitionRebalancesSkewedRanks builds a forest where rank 0's
// two trees have refined to 16 elements each while rank 1's stayed at
// 1 element each (32 vs 2), then partitions. Longest-processing-time
// assignment over tree counts [16,16,1,1] across 2 ranks lands tree 0
// and tree 2 on rank 0 (17 elements) and tree 1 and tree 3 on rank 1
// (17 elements) — exercising a tree crossing ranks in both directions.
func TestSetPartitionRebalancesSkewedRanks(t *testing.T) {
	t.Parallel()
	cm := fourTreeTwoRankCmesh(t)

	refineRank0Trees := func(forest *t8forest.Forest, treeL t8trees.LocalID, n int, elems []t8scheme.Element) int {
		if treeL < 2 {
			return 1
		}
		return 0
	}

	err := t8comm.Run(context.Background(), 2, func(ctx context.Context, g t8comm.Group) error {
		cur := t8forest.Init()
		cur.SetCmesh(cm)
		cur.SetScheme(t8cube.NewQuadScheme())
		cur.SetRank(g.Rank())
		cur.SetLevel(0)
		require.NoError(t, cur.Commit(ctx, g, nil))

		for round := 0; round < 2; round++ {
			next := t8forest.Init()
			next.SetCmesh(cm)
			next.SetScheme(t8cube.NewQuadScheme())
			next.SetRank(g.Rank())
			next.SetAdapt(cur, refineRank0Trees, nil, false)
			require.NoError(t, next.Commit(ctx, g, nil))
			cur = next
			require.NoError(t, g.Barrier(ctx))
		}

		if g.Rank() == 0 {
			require.Equal(t, 32, cur.NumElements())
		} else {
			require.Equal(t, 2, cur.NumElements())
		}

		dst := t8forest.Init()
		dst.SetCmesh(cm)
		dst.SetScheme(t8cube.NewQuadScheme())
		dst.SetRank(g.Rank())
		dst.SetPartition(cur, false)
		require.NoError(t, dst.Commit(ctx, g, nil))

		assert.Equal(t, 17, dst.NumElements())
		if g.Rank() == 0 {
			assert.Len(t, dst.Elements(0), 16)
			assert.Len(t, dst.Elements(2), 1)
		} else {
			assert.Len(t, dst.Elements(1), 16)
			assert.Len(t, dst.Elements(3), 1)
		}
		return nil
	})
	require.NoError(t, err)
}
