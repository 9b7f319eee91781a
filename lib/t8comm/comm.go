// Package t8comm abstracts the bulk-synchronous, MPI-like process
// group that the balance driver (optional repartition between rounds)
// and the ghost-data exchange use to agree on a collective result or
// move bytes between ranks. Run spawns one goroutine per simulated
// rank, the same bring-up idiom the teacher's CLI commands use to fan a
// dgroup.Group out over a fixed unit of work, and gives each goroutine
// a Group bound to its own rank.
package t8comm

import (
	"context"
	"fmt"
	"sync"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
)

// Group is the per-rank handle a collective operation runs against.
// The collective methods (Barrier, AllReduceAnd, AllReduceSum) block
// until every rank has made the matching call; mismatched call
// sequences across ranks (one rank calling Barrier while another calls
// AllReduceAnd) deadlock, the same hazard a real MPI program has. Send
// and Recv are pairwise between two ranks.
type Group interface {
	Rank() int
	Size() int

	// Barrier blocks until every rank has called Barrier.
	Barrier(ctx context.Context) error

	// AllReduceAnd returns the logical AND of every rank's local value.
	AllReduceAnd(ctx context.Context, local bool) (bool, error)

	// AllReduceSum returns the sum of every rank's local value.
	AllReduceSum(ctx context.Context, local int64) (int64, error)

	// Send queues data for the matching Recv(from=Rank(), tag) on rank
	// to and returns; it blocks only while an earlier message with the
	// same (from, to, tag) has not yet been received.
	Send(ctx context.Context, to int, tag int, data []byte) error

	// Recv blocks until a matching Send(to=Rank(), tag) from rank from
	// has arrived.
	Recv(ctx context.Context, from int, tag int) ([]byte, error)
}

// Run spawns size goroutines, one per simulated rank, each running fn
// with a Group bound to its rank. Run waits for every rank to return
// and aggregates their errors via the spawning dgroup.Group, the same
// pattern the teacher's scan commands use to fan work out and collect
// it back.
func Run(ctx context.Context, size int, fn func(ctx context.Context, g Group) error) error {
	if size <= 0 {
		return fmt.Errorf("t8comm: Run: size must be positive, got %d", size)
	}
	dlog.Infof(ctx, "t8comm: run: spawning %d ranks", size)
	shared := newShared(size)
	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
	for r := 0; r < size; r++ {
		r := r
		grp.Go(fmt.Sprintf("rank-%d", r), func(ctx context.Context) error {
			ctx = dlog.WithField(ctx, "t8comm.rank", r)
			dlog.Tracef(ctx, "t8comm: rank %d starting", r)
			err := fn(ctx, &loopbackGroup{rank: r, shared: shared})
			dlog.Tracef(ctx, "t8comm: rank %d done", r)
			return err
		})
	}
	err := grp.Wait()
	if err != nil {
		dlog.Warnf(ctx, "t8comm: run: %d ranks finished with error: %v", size, err)
	} else {
		dlog.Infof(ctx, "t8comm: run: %d ranks finished", size)
	}
	return err
}

// shared is the state every rank's Group in one Run call communicates
// through: a reusable barrier and per-tag mailboxes for point-to-point
// messages.
type shared struct {
	size int

	barrierMu  sync.Mutex
	barrierCnd *sync.Cond
	barrierGen int
	barrierCnt int

	reduceMu  sync.Mutex
	reduceBuf []int64 // reused for both AllReduceAnd (0/1) and AllReduceSum

	mailMu  sync.Mutex
	mailbox map[mailKey]chan []byte
}

type mailKey struct {
	from, to, tag int
}

func newShared(size int) *shared {
	s := &shared{
		size:      size,
		reduceBuf: make([]int64, size),
		mailbox:   make(map[mailKey]chan []byte),
	}
	s.barrierCnd = sync.NewCond(&s.barrierMu)
	return s
}

func (s *shared) barrier(ctx context.Context) error {
	s.barrierMu.Lock()
	defer s.barrierMu.Unlock()
	gen := s.barrierGen
	s.barrierCnt++
	if s.barrierCnt == s.size {
		s.barrierCnt = 0
		s.barrierGen++
		s.barrierCnd.Broadcast()
		return nil
	}
	for gen == s.barrierGen {
		s.barrierCnd.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *shared) mailboxFor(k mailKey) chan []byte {
	s.mailMu.Lock()
	defer s.mailMu.Unlock()
	ch, ok := s.mailbox[k]
	if !ok {
		ch = make(chan []byte, 1)
		s.mailbox[k] = ch
	}
	return ch
}

type loopbackGroup struct {
	rank   int
	shared *shared
}

var _ Group = (*loopbackGroup)(nil)

func (g *loopbackGroup) Rank() int { return g.rank }
func (g *loopbackGroup) Size() int { return g.shared.size }

func (g *loopbackGroup) Barrier(ctx context.Context) error {
	return g.shared.barrier(ctx)
}

func (g *loopbackGroup) AllReduceAnd(ctx context.Context, local bool) (bool, error) {
	var v int64
	if local {
		v = 1
	}
	sum, err := g.allReduce(ctx, v)
	if err != nil {
		return false, err
	}
	return sum == int64(g.shared.size), nil
}

func (g *loopbackGroup) AllReduceSum(ctx context.Context, local int64) (int64, error) {
	return g.allReduce(ctx, local)
}

// allReduce writes this rank's value into the shared reduce buffer,
// barriers, and returns the sum every rank computes identically from
// the now-complete buffer.
func (g *loopbackGroup) allReduce(ctx context.Context, local int64) (int64, error) {
	g.shared.reduceMu.Lock()
	g.shared.reduceBuf[g.rank] = local
	g.shared.reduceMu.Unlock()

	if err := g.shared.barrier(ctx); err != nil {
		return 0, err
	}

	var sum int64
	g.shared.reduceMu.Lock()
	for _, v := range g.shared.reduceBuf {
		sum += v
	}
	g.shared.reduceMu.Unlock()

	// A second barrier keeps one rank from overwriting reduceBuf for
	// the next collective before a slower rank has finished reading it.
	if err := g.shared.barrier(ctx); err != nil {
		return 0, err
	}
	return sum, nil
}

func (g *loopbackGroup) Send(ctx context.Context, to int, tag int, data []byte) error {
	if to < 0 || to >= g.shared.size {
		return fmt.Errorf("t8comm: Send: rank %d out of range [0,%d)", to, g.shared.size)
	}
	ch := g.shared.mailboxFor(mailKey{from: g.rank, to: to, tag: tag})
	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *loopbackGroup) Recv(ctx context.Context, from int, tag int) ([]byte, error) {
	if from < 0 || from >= g.shared.size {
		return nil, fmt.Errorf("t8comm: Recv: rank %d out of range [0,%d)", from, g.shared.size)
	}
	ch := g.shared.mailboxFor(mailKey{from: from, to: g.rank, tag: tag})
	select {
	case data := <-ch:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
