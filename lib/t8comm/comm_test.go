package t8comm_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8comm"
)

func TestRunRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()
	err := t8comm.Run(context.Background(), 0, func(ctx context.Context, g t8comm.Group) error {
		return nil
	})
	require.Error(t, err)
}

func TestAllReduceAndRequiresEveryRank(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := t8comm.Run(ctx, 4, func(ctx context.Context, g t8comm.Group) error {
		local := g.Rank() != 2 // rank 2 reports false
		all, err := g.AllReduceAnd(ctx, local)
		if err != nil {
			return err
		}
		if all {
			return fmt.Errorf("rank %d: expected AllReduceAnd to be false", g.Rank())
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAllReduceSumMatchesTriangularNumber(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const size = 6
	err := t8comm.Run(ctx, size, func(ctx context.Context, g t8comm.Group) error {
		sum, err := g.AllReduceSum(ctx, int64(g.Rank()))
		if err != nil {
			return err
		}
		if sum != 15 { // 0+1+2+3+4+5
			return fmt.Errorf("rank %d: sum = %d, want 15", g.Rank(), sum)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestSendRecvExchangesNeighborData(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const size = 3
	err := t8comm.Run(ctx, size, func(ctx context.Context, g t8comm.Group) error {
		next := (g.Rank() + 1) % size
		prev := (g.Rank() - 1 + size) % size

		if err := g.Send(ctx, next, 0, []byte{byte(g.Rank())}); err != nil {
			return err
		}
		got, err := g.Recv(ctx, prev, 0)
		if err != nil {
			return err
		}
		if len(got) != 1 || got[0] != byte(prev) {
			return fmt.Errorf("rank %d: got %v, want [%d]", g.Rank(), got, prev)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBarrierReleasesAllRanksTogether(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const size = 5
	before := make(chan int, size)
	after := make(chan int, size)

	err := t8comm.Run(ctx, size, func(ctx context.Context, g t8comm.Group) error {
		before <- g.Rank()
		if err := g.Barrier(ctx); err != nil {
			return err
		}
		after <- g.Rank()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, before, size)
	assert.Len(t, after, size)
}
