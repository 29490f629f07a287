package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/export"
	"jobscout-engine/internal/store"
	"jobscout-engine/internal/walk"
)

// Pipeline wires the walk, enrich, persist, and export stages into one
// run. Stage-internal failures are already isolated at page/fetch/record
// granularity; what reaches here is either a clean result or a fatal
// condition worth flushing partial data over.
type Pipeline struct {
	Walker   *walk.Walker
	Enricher *enrich.Scheduler
	Store    store.Store
	Export   *export.Writer

	BatchSize int
}

// Run executes one full scrape. It always ends with a logged summary;
// on a fatal error after listings were collected it writes a .partial
// export before returning the error, so no run terminates empty-handed.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	log.Printf("[run %s] starting job scrape", runID)

	jobs := p.Walker.Walk(ctx)
	if len(jobs) == 0 {
		log.Printf("[run %s] no listings found; nothing to persist", runID)
		return nil
	}

	enriched := p.Enricher.Enrich(ctx, jobs, p.BatchSize)

	res, err := p.Store.Upsert(ctx, enriched)
	if err != nil {
		p.flushPartial(runID, enriched)
		return fmt.Errorf("persist jobs: %w", err)
	}

	if err := p.Export.Write(enriched); err != nil {
		log.Printf("[run %s] export failed: %v", runID, err)
		p.flushPartial(runID, enriched)
		return fmt.Errorf("export jobs: %w", err)
	}

	log.Printf("[run %s] done: %d listing(s), inserted=%d updated=%d failed=%d",
		runID, len(enriched), res.Inserted, res.Updated, res.Failed)
	return nil
}

func (p *Pipeline) flushPartial(runID string, jobs []domain.Job) {
	log.Printf("[run %s] flushing %d collected listing(s) to partial export", runID, len(jobs))
	if err := p.Export.WritePartial(jobs); err != nil {
		log.Printf("[run %s] partial export failed: %v", runID, err)
	}
}
