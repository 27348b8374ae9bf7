package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelf/internal/models"
)

func TestSessionMarksOvertakenResponseStale(t *testing.T) {
	started := make(chan struct{})
	slow := ProviderFunc(func(ctx context.Context, query string) ([]models.SearchResult, error) {
		if query == "du" {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []models.SearchResult{{ID: "dune", Title: "Dune"}}, nil
	})
	a := NewAggregator(quiet(), WithProvider(models.CategoryBooks, slow))
	s := a.NewSession()

	type result struct {
		resp Response
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		resp, err := s.Do(context.Background(), Request{Query: "du", Kind: models.CategoryBooks})
		firstDone <- result{resp, err}
	}()
	<-started

	latest, err := s.Do(context.Background(), Request{Query: "dune", Kind: models.CategoryBooks})
	require.NoError(t, err)
	assert.False(t, latest.Stale)
	assert.Equal(t, uint64(2), latest.Seq)
	require.Len(t, latest.Results, 1)

	select {
	case r := <-firstDone:
		require.NoError(t, r.err)
		assert.True(t, r.resp.Stale)
		assert.Equal(t, uint64(1), r.resp.Seq)
		assert.Empty(t, r.resp.Results)
	case <-time.After(2 * time.Second):
		t.Fatal("first search was not canceled")
	}
	assert.Equal(t, uint64(2), s.Latest())
}

func TestSessionSequentialCallsAreCurrent(t *testing.T) {
	p := &countingProvider{results: []models.SearchResult{{ID: "1"}}}
	s := NewAggregator(allKinds(p)...).NewSession()
	for i := 1; i <= 3; i++ {
		resp, err := s.Do(context.Background(), Request{Query: "dune", Kind: models.CategoryPodcasts})
		require.NoError(t, err)
		assert.False(t, resp.Stale)
		assert.Equal(t, uint64(i), resp.Seq)
	}
}
