package enrich

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/render"
)

// Scheduler fetches detail pages for listings that resolved an id, in
// contiguous batches. The batch size doubles as the concurrency bound:
// each batch is dispatched with one fetch per record and gathered before
// the next batch starts.
type Scheduler struct {
	renderer render.Renderer

	// Location rides along in the detail URL.
	Location string

	// FetchTimeout bounds one whole detail fetch; WaitTimeout bounds the
	// description-region probe inside it.
	FetchTimeout time.Duration
	WaitTimeout  time.Duration
	Settle       time.Duration
}

func New(r render.Renderer, location string) *Scheduler {
	return &Scheduler{
		renderer:     r,
		Location:     location,
		FetchTimeout: 30 * time.Second,
		WaitTimeout:  10 * time.Second,
		Settle:       4 * time.Second,
	}
}

// Enrich fills in the detail substructure for every record with a
// resolved id and returns the collection with unresolved-id records
// reattached, unmodified, at the end. The relative order of the valid
// records is the input order; results are merged back by batch position,
// not fetch completion order.
func (s *Scheduler) Enrich(ctx context.Context, jobs []domain.Job, batchSize int) []domain.Job {
	if batchSize <= 0 {
		batchSize = 5
	}

	valid := make([]domain.Job, 0, len(jobs))
	var invalid []domain.Job
	for _, j := range jobs {
		if j.HasID() {
			valid = append(valid, j)
		} else {
			invalid = append(invalid, j)
		}
	}

	log.Printf("[enrich] fetching details for %d job(s) in batches of %d", len(valid), batchSize)

	for start := 0; start < len(valid); start += batchSize {
		end := start + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		s.runBatch(ctx, valid[start:end])
	}

	return append(valid, invalid...)
}

// runBatch dispatches one fetch per record and waits for all of them.
// Each goroutine writes to its own slot, which is what keeps results
// paired with their originating record regardless of completion order.
func (s *Scheduler) runBatch(ctx context.Context, batch []domain.Job) {
	var g errgroup.Group
	for i := range batch {
		i := i
		g.Go(func() error {
			batch[i].Detail = s.fetchDetail(ctx, batch[i])
			return nil
		})
	}
	_ = g.Wait()
}

// fetchDetail never fails the batch: any error collapses to an
// all-sentinel detail for this one record.
func (s *Scheduler) fetchDetail(ctx context.Context, j domain.Job) domain.Detail {
	fctx, cancel := context.WithTimeout(ctx, s.FetchTimeout)
	defer cancel()

	url := DetailURL(j.ID, j.Title, s.Location)
	markup, err := s.renderer.Render(fctx, url, render.Options{
		WaitFor: detailProbes,
		Timeout: s.WaitTimeout,
		Settle:  s.Settle,
	})
	if err != nil {
		log.Printf("[enrich] job %s: %v", j.ID, err)
		return domain.EmptyDetail()
	}
	return ParseDetail(markup)
}
