// Package t8ghost implements the ghost-data exchange (collective fill
// of a user buffer's ghost region from the ranks that own those
// elements), generic over element size so it can carry any fixed-size
// per-element payload a caller packs — not just leaf elements.
package t8ghost

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/datawire/dlib/dlog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/t8code-go/t8mesh/lib/t8comm"
)

// Layout describes one rank's view of a ghost-exchange buffer: how
// many of its own elements it owns, how many ghost slots follow them,
// and for each ghost slot the rank that owns the corresponding element
// and that element's index within the owner's local region.
type Layout struct {
	NumLocal int
	ElemSize int

	// GhostOwner[g] and GhostRemoteIndex[g] describe ghost slot g, for
	// g in [0, len(GhostOwner)).
	GhostOwner       []int
	GhostRemoteIndex []int
}

// NumGhosts is len(l.GhostOwner).
func (l Layout) NumGhosts() int { return len(l.GhostOwner) }

const (
	tagRequest = 0
	tagReply   = 1
)

// Exchange fills buf's ghost region (elements [NumLocal,
// NumLocal+NumGhosts)) with the bytes each owning rank holds in its own
// local region at GhostRemoteIndex. buf must be sized exactly
// (NumLocal+NumGhosts)*ElemSize; the local region (the first NumLocal
// elements) is read but never modified. Every rank in g must call
// Exchange with the same ElemSize.
//
// Every rank sends one (possibly empty) index request to every other
// rank, so a rank's Recv always has a matching Send regardless of
// whether it happens to own any of the caller's ghosts — the
// request/reply round trip is O(size^2) messages, acceptable at the
// rank counts this reference implementation targets.
func Exchange(ctx context.Context, g t8comm.Group, layout Layout, buf []byte) error {
	wantLen := (layout.NumLocal + layout.NumGhosts()) * layout.ElemSize
	if len(buf) != wantLen {
		return fmt.Errorf("t8ghost: Exchange: buf is %d bytes, want %d (NumLocal=%d NumGhosts=%d ElemSize=%d)",
			len(buf), wantLen, layout.NumLocal, layout.NumGhosts(), layout.ElemSize)
	}
	dlog.Debugf(ctx, "t8ghost: exchange: %d local, %d ghost slots", layout.NumLocal, layout.NumGhosts())

	requestedIndices := make(map[int][]int) // owner rank -> remote indices
	ghostSlotsByOwner := make(map[int][]int)
	for ghostIdx, owner := range layout.GhostOwner {
		requestedIndices[owner] = append(requestedIndices[owner], layout.GhostRemoteIndex[ghostIdx])
		ghostSlotsByOwner[owner] = append(ghostSlotsByOwner[owner], ghostIdx)
	}

	if err := g.Barrier(ctx); err != nil {
		return err
	}

	me := g.Rank()
	size := g.Size()
	for r := 0; r < size; r++ {
		if r == me {
			continue
		}
		if err := g.Send(ctx, r, tagRequest, encodeIndices(requestedIndices[r])); err != nil {
			return err
		}
	}

	requestsFromOthers := make(map[int][]int, size-1)
	for r := 0; r < size; r++ {
		if r == me {
			continue
		}
		data, err := g.Recv(ctx, r, tagRequest)
		if err != nil {
			return err
		}
		requestsFromOthers[r] = decodeIndices(data)
	}

	for r, indices := range requestsFromOthers {
		reply := make([]byte, len(indices)*layout.ElemSize)
		for i, idx := range indices {
			if idx < 0 || idx >= layout.NumLocal {
				dlog.Warnf(ctx, "t8ghost: exchange: rank %d requested out-of-range local index %d", r, idx)
				return fmt.Errorf("t8ghost: Exchange: rank %d requested out-of-range local index %d", r, idx)
			}
			copy(reply[i*layout.ElemSize:(i+1)*layout.ElemSize], buf[idx*layout.ElemSize:(idx+1)*layout.ElemSize])
		}
		if err := g.Send(ctx, r, tagReply, reply); err != nil {
			return err
		}
	}

	for r := 0; r < size; r++ {
		if r == me {
			continue
		}
		indices := requestedIndices[r]
		if len(indices) == 0 {
			// Still must drain the (empty) reply this rank sent us,
			// since every rank replies to every request it received.
			if _, err := g.Recv(ctx, r, tagReply); err != nil {
				return err
			}
			continue
		}
		data, err := g.Recv(ctx, r, tagReply)
		if err != nil {
			return err
		}
		if len(data) != len(indices)*layout.ElemSize {
			return fmt.Errorf("t8ghost: Exchange: reply from rank %d is %d bytes, want %d", r, len(data), len(indices)*layout.ElemSize)
		}
		for i, ghostIdx := range ghostSlotsByOwner[r] {
			off := (layout.NumLocal + ghostIdx) * layout.ElemSize
			copy(buf[off:off+layout.ElemSize], data[i*layout.ElemSize:(i+1)*layout.ElemSize])
		}
	}

	if err := g.Barrier(ctx); err != nil {
		return err
	}
	dlog.Infof(ctx, "t8ghost: exchange done")
	return nil
}

func encodeIndices(indices []int) []byte {
	buf := make([]byte, 4*len(indices))
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(idx))
	}
	return buf
}

func decodeIndices(buf []byte) []int {
	out := make([]int, len(buf)/4)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

// lruCacheSize bounds the global-tree-id -> local-ghost-id lookup cache
// that GhostLookup fronts t8trees' linear ghost scan with.
const lruCacheSize = 4096

// NewGhostIDCache returns a bounded LRU cache suitable for memoizing
// global-tree-id -> local-ghost-index lookups, fronting the linear scan
// the spec says is acceptable but not preferred once ghost counts grow.
func NewGhostIDCache() (*lru.Cache[int64, int], error) {
	return lru.New[int64, int](lruCacheSize)
}
