package t8ghost

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/t8code-go/t8mesh/lib/t8trees"
)

// GhostLookup resolves a global tree id to a local ghost id, fronting
// lib/t8trees.Trees.FindGhostByGlobal's linear scan with a bounded LRU
// cache. A face-consistency pass (lib/t8cmesh's IsFaceConsistent, its
// only caller) can ask the same global id many times across a run;
// the cache turns repeat lookups into an O(1) hit instead of a fresh
// O(numGhosts) scan each time.
type GhostLookup struct {
	trees *t8trees.Trees
	cache *lru.Cache[int64, int]
}

// NewGhostLookup wires trees' ghost records behind a bounded LRU cache.
func NewGhostLookup(trees *t8trees.Trees) (*GhostLookup, error) {
	cache, err := NewGhostIDCache()
	if err != nil {
		return nil, err
	}
	return &GhostLookup{trees: trees, cache: cache}, nil
}

// Resolve returns the local ghost id whose global tree id is g, scanning
// trees' ghost records only on a cache miss.
func (l *GhostLookup) Resolve(g t8trees.GlobalID) (t8trees.LocalID, bool) {
	if lg, ok := l.cache.Get(int64(g)); ok {
		return t8trees.LocalID(lg), true
	}
	lg, ok := l.trees.FindGhostByGlobal(g)
	if !ok {
		return 0, false
	}
	l.cache.Add(int64(g), int(lg))
	return lg, true
}
