package main

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer read of the same kind started
// before this one finished. The caller must drop the result.
var ErrSuperseded = errors.New("request superseded by a newer one")

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// supersede keeps at most one live read per kind: starting a new one
// cancels the previous, and only the latest may apply its response.
type supersede struct {
	mu    sync.Mutex
	seq   uint64
	slots map[string]inflight
}

func newSupersede() *supersede {
	return &supersede{slots: make(map[string]inflight)}
}

func (s *supersede) begin(ctx context.Context, kind string) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.slots[kind]; ok {
		prev.cancel()
	}
	s.seq++
	seq := s.seq
	s.slots[kind] = inflight{seq: seq, cancel: cancel}
	s.mu.Unlock()

	return ctx, seq, cancel
}

// finish reports whether seq is still the latest request of its kind.
func (s *supersede) finish(kind string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.slots[kind]
	if !ok || cur.seq != seq {
		return false
	}
	delete(s.slots, kind)
	return true
}
