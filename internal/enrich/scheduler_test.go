package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/render"
)

// gatedRenderer blocks every fetch until the test releases it, which
// makes batch boundaries observable without timing games.
type gatedRenderer struct {
	gate     chan struct{}
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (g *gatedRenderer) Render(_ context.Context, _ string, _ render.Options) (string, error) {
	g.calls.Add(1)
	n := g.inFlight.Add(1)
	for {
		m := g.maxSeen.Load()
		if n <= m || g.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	<-g.gate
	g.inFlight.Add(-1)
	return "<html><body></body></html>", nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(time.Millisecond):
		}
	}
}

func release(g *gatedRenderer, n int) {
	for i := 0; i < n; i++ {
		g.gate <- struct{}{}
	}
}

func makeJobs(n int) []domain.Job {
	jobs := make([]domain.Job, 0, n)
	for i := 0; i < n; i++ {
		j := domain.NewJob()
		j.ID = fmt.Sprintf("%d", 1000+i)
		j.Title = fmt.Sprintf("Job %d", i)
		jobs = append(jobs, j)
	}
	return jobs
}

// 12 eligible records with batchSize 5 must run as exactly three
// gathers of 5, 5, and 2 fetches, never more than 5 in flight.
func TestEnrich_BatchPartitioningAndBound(t *testing.T) {
	g := &gatedRenderer{gate: make(chan struct{})}
	s := New(g, "Remote")

	done := make(chan []domain.Job)
	go func() { done <- s.Enrich(context.Background(), makeJobs(12), 5) }()

	waitFor(t, func() bool { return g.calls.Load() == 5 })
	assert.Equal(t, int32(5), g.inFlight.Load(), "first batch fills to the bound")
	release(g, 5)

	waitFor(t, func() bool { return g.calls.Load() == 10 })
	assert.Equal(t, int32(5), g.inFlight.Load(), "second batch fills to the bound")
	release(g, 5)

	waitFor(t, func() bool { return g.calls.Load() == 12 })
	assert.Equal(t, int32(2), g.inFlight.Load(), "final short batch")
	release(g, 2)

	out := <-done
	assert.Len(t, out, 12)
	assert.LessOrEqual(t, g.maxSeen.Load(), int32(5), "never more than batchSize fetches at once")
}

func TestEnrich_UnresolvedIDsSkippedButKept(t *testing.T) {
	valid := makeJobs(3)
	orphan := domain.NewJob()
	orphan.Title = "Mystery Role"
	jobs := []domain.Job{valid[0], orphan, valid[1], valid[2]}

	g := &gatedRenderer{gate: make(chan struct{})}
	close(g.gate) // no gating needed here

	s := New(g, "Remote")
	out := s.Enrich(context.Background(), jobs, 5)

	require.Len(t, out, 4)
	assert.Equal(t, int32(3), g.calls.Load(), "only resolved ids are fetched")

	// Valid records come first in their original order; the orphan is
	// reattached, untouched, at the end.
	assert.Equal(t, "1000", out[0].ID)
	assert.Equal(t, "1001", out[1].ID)
	assert.Equal(t, "1002", out[2].ID)
	assert.Equal(t, "Mystery Role", out[3].Title)
	assert.Equal(t, domain.NA, out[3].ID)
	assert.Equal(t, domain.EmptyDetail(), out[3].Detail)
}

type flakyRenderer struct {
	failID string
}

func (f *flakyRenderer) Render(_ context.Context, url string, _ render.Options) (string, error) {
	if f.failID != "" && strings.Contains(url, "currentJobId="+f.failID) {
		return "", errors.New("render process crashed")
	}
	return detailPage, nil
}

func TestEnrich_FetchFailureIsolatedToOneRecord(t *testing.T) {
	jobs := makeJobs(3)
	s := New(&flakyRenderer{failID: jobs[1].ID}, "Remote")

	out := s.Enrich(context.Background(), jobs, 3)
	require.Len(t, out, 3)

	assert.Equal(t, "Mid-Senior level", out[0].Detail.SeniorityLevel)
	assert.Equal(t, domain.EmptyDetail(), out[1].Detail, "failed fetch collapses to sentinels")
	assert.Equal(t, "Mid-Senior level", out[2].Detail.SeniorityLevel)
}

func TestEnrich_MergesDetailByPosition(t *testing.T) {
	jobs := makeJobs(2)
	s := New(&flakyRenderer{}, "Remote")

	out := s.Enrich(context.Background(), jobs, 2)
	require.Len(t, out, 2)
	for i := range out {
		assert.Equal(t, jobs[i].ID, out[i].ID, "submission order preserved")
		assert.Equal(t, "Full-time", out[i].Detail.EmploymentType)
	}
}
