package services

import (
	"context"
	"sync"
)

// Superseder enforces last-request-wins per view key. Starting a request for a
// key cancels whichever request for the same key is still running.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
}

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

func NewSuperseder() *Superseder {
	return &Superseder{inflight: map[string]inflight{}}
}

// Begin registers a request for key and returns its context together with a
// finish func. finish releases the request and reports whether it was still
// the newest one for key; a false result means the caller must discard its
// result.
func (s *Superseder) Begin(ctx context.Context, key string) (context.Context, func() bool) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.seq++
	id := s.seq
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = inflight{id: id, cancel: cancel}
	s.mu.Unlock()

	var once sync.Once
	var current bool
	finish := func() bool {
		once.Do(func() {
			s.mu.Lock()
			if cur, ok := s.inflight[key]; ok && cur.id == id {
				delete(s.inflight, key)
				current = true
			}
			s.mu.Unlock()
			cancel()
		})
		return current
	}
	return ctx, finish
}

// InFlight reports how many keys have a running request.
func (s *Superseder) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
