package walk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/render"
)

// fakeRenderer serves canned markup per URL and records what was asked.
type fakeRenderer struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeRenderer) Render(_ context.Context, url string, _ render.Options) (string, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func TestSearchURL_Pagination(t *testing.T) {
	p0 := SearchURL("AI Software Engineer", "Remote", 0)
	assert.Equal(t, "https://www.linkedin.com/jobs/search/?keywords=AI%20Software%20Engineer&location=Remote", p0)
	assert.NotContains(t, p0, "start=")

	p2 := SearchURL("AI Software Engineer", "Remote", 2)
	assert.Contains(t, p2, "&start=50")
}

func TestWalk_PageFailureIsNotFatal(t *testing.T) {
	keywords, location := "golang", "Berlin"
	page := func(n int) string { return SearchURL(keywords, location, n) }

	f := &fakeRenderer{
		pages: map[string]string{
			page(0): `<div data-job-id="1"><a aria-label="A" href="/jobs/view/a-at-x-1?r">a</a></div>`,
			page(2): `<div data-job-id="3"><a aria-label="C" href="/jobs/view/c-at-x-3?r">c</a></div>`,
		},
		errs: map[string]error{
			page(1): errors.New("net::ERR_CONNECTION_RESET"),
		},
	}

	w := New(f, keywords, location, 3)
	jobs := w.Walk(context.Background())

	require.Len(t, jobs, 2, "the failed page counts as zero results, not an abort")
	assert.Equal(t, "1", jobs[0].ID)
	assert.Equal(t, "3", jobs[1].ID)
	assert.Len(t, f.calls, 3, "every page is still attempted")
}

func TestWalk_DeduplicatesRepeatedListings(t *testing.T) {
	keywords, location := "golang", "Berlin"
	page := func(n int) string { return SearchURL(keywords, location, n) }

	repeated := `<div data-job-id="7"><a aria-label="Dup" href="/jobs/view/d-at-x-7?r">d</a></div>`
	f := &fakeRenderer{
		pages: map[string]string{
			page(0): repeated,
			page(1): repeated + `<div data-job-id="8"><a aria-label="New" href="/jobs/view/n-at-x-8?r">n</a></div>`,
		},
	}

	w := New(f, keywords, location, 2)
	jobs := w.Walk(context.Background())

	require.Len(t, jobs, 2)
	assert.Equal(t, "7", jobs[0].ID, "first occurrence wins")
	assert.Equal(t, "8", jobs[1].ID)
}

// The cascade stops at page level after the first non-empty strategy: a
// card only a generic heuristic could find is NOT separately picked up
// when a structured strategy already matched something on the page.
func TestWalk_FallbackOnlyWhenPageFullyEmpty(t *testing.T) {
	keywords, location := "golang", "Berlin"
	page := func(n int) string { return SearchURL(keywords, location, n) }

	mixed := `
<div data-job-id="123"><a aria-label="Engineer" href="/jobs/view/e-at-x-123?r">e</a></div>
<div class="promo-card"><a href="#">Senior Analyst Role</a></div>`

	f := &fakeRenderer{pages: map[string]string{page(0): mixed}}
	w := New(f, keywords, location, 1)
	jobs := w.Walk(context.Background())

	require.Len(t, jobs, 1)
	assert.Equal(t, "123", jobs[0].ID)
	assert.Equal(t, "Engineer", jobs[0].Title)
}

func TestWalk_GenericFallbackOnEmptyPage(t *testing.T) {
	keywords, location := "golang", "Berlin"
	page := func(n int) string { return SearchURL(keywords, location, n) }

	f := &fakeRenderer{
		pages: map[string]string{
			page(0): `<div class="unrecognized"><a href="https://www.linkedin.com/jobs/view/x-at-y-42?r">Senior Analyst Role</a></div>`,
		},
	}

	w := New(f, keywords, location, 1)
	jobs := w.Walk(context.Background())

	require.NotEmpty(t, jobs)
	assert.Equal(t, "Senior Analyst Role", jobs[0].Title)
	assert.Equal(t, domain.Unknown, jobs[0].Company)
	assert.Equal(t, domain.Unknown, jobs[0].Location)
}
