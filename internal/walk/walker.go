package walk

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/extract"
	"jobscout-engine/internal/render"
)

// containerProbes are the known shapes of the results container, current
// layout first. The walk proceeds even when none of them shows up.
var containerProbes = []string{
	"div.jobs-search-results-list",
	"ul.jobs-search__results-list",
	"div.scaffold-layout__list",
	"ul.osvXwttVlxSToASQQxfDDAjwVGNfaCA",
}

// pageSize is the listing count per search page. It is a fixed contract
// of the search endpoint, not something we probe per response.
const pageSize = 25

// Walker drives the paginated listing scrape. It is strictly sequential
// because it shares one renderer session.
type Walker struct {
	renderer render.Renderer

	Keywords string
	Location string
	Pages    int

	// ProbeTimeout bounds the wait for a results container; Settle is
	// extra render time granted after the probe.
	ProbeTimeout time.Duration
	Settle       time.Duration
}

func New(r render.Renderer, keywords, location string, pages int) *Walker {
	return &Walker{
		renderer:     r,
		Keywords:     keywords,
		Location:     location,
		Pages:        pages,
		ProbeTimeout: 6 * time.Second,
		Settle:       3 * time.Second,
	}
}

// SearchURL builds the paginated search URL. Page 0 carries no offset;
// page k adds start=25*k.
func SearchURL(keywords, location string, page int) string {
	u := fmt.Sprintf("%s/jobs/search/?keywords=%s&location=%s",
		extract.BaseURL, encodeQuery(keywords), encodeQuery(location))
	if page > 0 {
		u += fmt.Sprintf("&start=%d", pageSize*page)
	}
	return u
}

func encodeQuery(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

// Walk scrapes all configured pages and merges the results in page order.
// Page failures are logged and count as zero results for that page; the
// walk never aborts early. Listings the site repeats across pages are
// dropped by id, first occurrence wins.
func (w *Walker) Walk(ctx context.Context) []domain.Job {
	log.Printf("[walk] scraping %d page(s) for %q in %q", w.Pages, w.Keywords, w.Location)

	var all []domain.Job
	seen := mapset.NewSet[string]()

	for page := 0; page < w.Pages; page++ {
		jobs, err := w.walkPage(ctx, page)
		if err != nil {
			log.Printf("[walk] page %d: %v (continuing)", page+1, err)
			continue
		}
		log.Printf("[walk] page %d: %d listing(s)", page+1, len(jobs))

		for _, j := range jobs {
			if j.HasID() && !seen.Add(j.ID) {
				continue
			}
			all = append(all, j)
		}
	}

	log.Printf("[walk] done: %d listing(s) collected", len(all))
	return all
}

func (w *Walker) walkPage(ctx context.Context, page int) ([]domain.Job, error) {
	url := SearchURL(w.Keywords, w.Location, page)

	markup, err := w.renderer.Render(ctx, url, render.Options{
		WaitFor: containerProbes,
		Timeout: w.ProbeTimeout,
		Settle:  w.Settle,
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	cards := extract.Cards(doc)
	if len(cards) == 0 {
		log.Printf("[walk] page %d: no structured cards, trying generic fallback", page+1)
		return extract.FallbackJobs(doc), nil
	}

	jobs := make([]domain.Job, 0, len(cards))
	for _, card := range cards {
		jobs = append(jobs, extract.Extract(card))
	}
	return jobs, nil
}
