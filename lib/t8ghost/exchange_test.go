package t8ghost_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t8code-go/t8mesh/lib/t8comm"
	"github.com/t8code-go/t8mesh/lib/t8ghost"
)

// TestExchangeFillsGhostsWithOwnersLocalValue builds a 4-rank ring
// where every rank's single ghost slot is its right neighbor's single
// local element, each holding f(rank) = rank*10. After Exchange every
// rank's ghost entry must equal f(its neighbor).
func TestExchangeFillsGhostsWithOwnersLocalValue(t *testing.T) {
	t.Parallel()
	const size = 4
	const elemSize = 4

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := t8comm.Run(ctx, size, func(ctx context.Context, g t8comm.Group) error {
		neighbor := (g.Rank() + 1) % size

		buf := make([]byte, 2*elemSize)
		binary.LittleEndian.PutUint32(buf[0:], uint32(g.Rank()*10))

		layout := t8ghost.Layout{
			NumLocal:         1,
			ElemSize:         elemSize,
			GhostOwner:       []int{neighbor},
			GhostRemoteIndex: []int{0},
		}
		if err := t8ghost.Exchange(ctx, g, layout, buf); err != nil {
			return err
		}

		got := binary.LittleEndian.Uint32(buf[elemSize:])
		want := uint32(neighbor * 10)
		if got != want {
			t.Errorf("rank %d: ghost = %d, want %d", g.Rank(), got, want)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestExchangeRejectsMismatchedBufferSize(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := t8comm.Run(ctx, 1, func(ctx context.Context, g t8comm.Group) error {
		layout := t8ghost.Layout{NumLocal: 1, ElemSize: 8}
		return t8ghost.Exchange(ctx, g, layout, make([]byte, 4))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "t8ghost")
}

func TestNewGhostIDCacheIsUsable(t *testing.T) {
	t.Parallel()
	cache, err := t8ghost.NewGhostIDCache()
	require.NoError(t, err)
	cache.Add(int64(42), 7)
	v, ok := cache.Get(int64(42))
	require.True(t, ok)
	assert.Equal(t, 7, v)
}
