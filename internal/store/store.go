package store

import (
	"context"
	"strings"
	"time"

	"jobscout-engine/internal/domain"
)

// Result summarizes one persistence pass.
type Result struct {
	Inserted int
	Updated  int
	Failed   int
}

// Analysis mirrors the analyzed_jobs row written by the scoring
// collaborator. It shares the job id key with the jobs table; this repo
// owns the schema and the write path, not the scoring itself.
type Analysis struct {
	JobID                 string
	MatchScore            int
	ShouldApply           bool
	ScoreJustification    string
	JudgmentJustification string
	MissingKeywords       []string
	ImprovementTips       []string
	PromptTokens          int
	CompletionTokens      int
	TotalTokens           int
	ProcessedAt           time.Time
}

// Store is the keyed persistence surface.
type Store interface {
	Migrate(ctx context.Context) error

	// Upsert inserts or fully updates each record by job id. Per-record
	// failures are counted and logged; the pass never aborts on one bad
	// row. Records without a resolved id are skipped with a warning and
	// excluded from all counts. The scraped-at timestamp is taken once
	// for the whole batch.
	Upsert(ctx context.Context, jobs []domain.Job) (Result, error)

	// Lookup fetches one record by id, nil when absent.
	Lookup(ctx context.Context, id string) (*domain.Job, error)

	SaveAnalysis(ctx context.Context, a Analysis) error

	// LookupAnalysis fetches the analysis row for one job id, nil when
	// the id was never analyzed. The scoring collaborator uses it to
	// skip ids it already processed.
	LookupAnalysis(ctx context.Context, id string) (*Analysis, error)

	Close() error
}

// Open selects a backend from the DSN: postgres DSNs get the pgx
// backend, anything else is treated as a sqlite path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(dsn)
}

// scrapedAtFormat matches the store's historical text timestamps.
const scrapedAtFormat = "2006-01-02 15:04:05"
