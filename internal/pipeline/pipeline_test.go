package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/export"
	"jobscout-engine/internal/render"
	"jobscout-engine/internal/store"
	"jobscout-engine/internal/walk"
)

type stubRenderer struct{ markup string }

func (s *stubRenderer) Render(context.Context, string, render.Options) (string, error) {
	return s.markup, nil
}

type memStore struct {
	upserted []domain.Job
	fail     bool
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Upsert(_ context.Context, jobs []domain.Job) (store.Result, error) {
	if m.fail {
		return store.Result{}, errors.New("database is on fire")
	}
	m.upserted = jobs
	var r store.Result
	for _, j := range jobs {
		if j.HasID() {
			r.Inserted++
		}
	}
	return r, nil
}
func (m *memStore) Lookup(context.Context, string) (*domain.Job, error) { return nil, nil }
func (m *memStore) SaveAnalysis(context.Context, store.Analysis) error  { return nil }
func (m *memStore) LookupAnalysis(context.Context, string) (*store.Analysis, error) {
	return nil, nil
}
func (m *memStore) Close() error { return nil }

const listingPage = `
<div data-job-id="101"><a aria-label="Engineer" href="/jobs/view/e-at-x-101?r">e</a></div>
<div data-job-id="102"><a aria-label="Analyst" href="/jobs/view/a-at-x-102?r">a</a></div>`

func newTestPipeline(t *testing.T, st store.Store) (*Pipeline, string) {
	t.Helper()
	exportPath := filepath.Join(t.TempDir(), "jobs.csv")
	return &Pipeline{
		Walker:    walk.New(&stubRenderer{markup: listingPage}, "golang", "Remote", 1),
		Enricher:  enrich.New(&stubRenderer{markup: "<html><body></body></html>"}, "Remote"),
		Store:     st,
		Export:    export.NewWriter(exportPath),
		BatchSize: 5,
	}, exportPath
}

func TestRun_HappyPath(t *testing.T) {
	st := &memStore{}
	p, exportPath := newTestPipeline(t, st)

	require.NoError(t, p.Run(context.Background()))

	assert.Len(t, st.upserted, 2)
	_, err := os.Stat(exportPath)
	assert.NoError(t, err, "export written on success")
	_, err = os.Stat(exportPath + ".partial")
	assert.True(t, os.IsNotExist(err))
}

func TestRun_PersistFailureFlushesPartialExport(t *testing.T) {
	p, exportPath := newTestPipeline(t, &memStore{fail: true})

	err := p.Run(context.Background())
	require.Error(t, err)

	// The run never ends empty-handed: collected listings land in the
	// .partial recovery artifact.
	_, serr := os.Stat(exportPath + ".partial")
	assert.NoError(t, serr)
}
