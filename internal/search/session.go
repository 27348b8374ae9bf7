package search

import (
	"context"
	"sync"
)

// Session serializes the searches of one interactive client. Each new search
// cancels the one still in flight, and only the latest search's response is
// reported as current.
type Session struct {
	agg *Aggregator

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession returns a session bound to a.
func (a *Aggregator) NewSession() *Session {
	return &Session{agg: a}
}

// Do runs req and tags the response with its sequence number. A response
// that was overtaken by a later call has Stale set and no results.
func (s *Session) Do(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	resp, err := s.agg.Do(ctx, req)
	resp.Seq = seq

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return Response{Results: nil, Stale: true, Seq: seq}, err
	}
	s.cancel = nil
	return resp, err
}

// Latest returns the sequence number of the most recent call.
func (s *Session) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
