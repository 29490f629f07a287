package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobscout-engine/internal/domain"
)

// Postgres is the pgx-backed store, selected when the DSN looks like a
// postgres URL. Same tables and the same per-record isolation rules as
// the sqlite backend.
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS linkedin_jobs (
  job_id TEXT PRIMARY KEY,
  job_title TEXT NOT NULL DEFAULT 'N/A',
  company_name TEXT NOT NULL DEFAULT 'N/A',
  location TEXT NOT NULL DEFAULT 'N/A',
  job_url TEXT NOT NULL DEFAULT 'N/A',
  job_description TEXT NOT NULL DEFAULT 'N/A',
  seniority_level TEXT NOT NULL DEFAULT 'N/A',
  employment_type TEXT NOT NULL DEFAULT 'N/A',
  job_function TEXT NOT NULL DEFAULT 'N/A',
  industries TEXT NOT NULL DEFAULT 'N/A',
  applicants TEXT NOT NULL DEFAULT 'N/A',
  date_posted TEXT NOT NULL DEFAULT 'N/A',
  date_scraped TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS analyzed_jobs (
  job_id TEXT PRIMARY KEY,
  match_score INTEGER NOT NULL DEFAULT 0,
  should_apply TEXT NOT NULL DEFAULT 'false',
  score_justification TEXT NOT NULL DEFAULT '',
  judgment_justification TEXT NOT NULL DEFAULT '',
  missing_keywords TEXT NOT NULL DEFAULT '[]',
  improvement_tips TEXT NOT NULL DEFAULT '[]',
  prompt_tokens INTEGER NOT NULL DEFAULT 0,
  completion_tokens INTEGER NOT NULL DEFAULT 0,
  total_tokens INTEGER NOT NULL DEFAULT 0,
  date_processed TEXT NOT NULL DEFAULT ''
);
`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, jobs []domain.Job) (Result, error) {
	var res Result
	if len(jobs) == 0 {
		log.Printf("[store] no jobs to save")
		return res, nil
	}

	scrapedAt := time.Now().Format(scrapedAtFormat)

	log.Printf("[store] saving %d job(s)", len(jobs))

	for _, j := range jobs {
		if !j.HasID() {
			log.Printf("[store] skipping job without valid id (title=%q)", j.Title)
			continue
		}

		var one int
		err := p.pool.QueryRow(ctx,
			`SELECT 1 FROM linkedin_jobs WHERE job_id = $1 LIMIT 1;`, j.ID).Scan(&one)

		switch {
		case err == nil:
			if _, uerr := p.pool.Exec(ctx, `
UPDATE linkedin_jobs SET
  job_title = $1, company_name = $2, location = $3, job_url = $4,
  job_description = $5, seniority_level = $6, employment_type = $7,
  job_function = $8, industries = $9, applicants = $10, date_posted = $11,
  date_scraped = $12
WHERE job_id = $13;`,
				j.Title, j.Company, j.Location, j.URL,
				j.Detail.Description, j.Detail.SeniorityLevel, j.Detail.EmploymentType,
				j.Detail.JobFunction, j.Detail.Industries, j.Detail.Applicants, j.Detail.DatePosted,
				scrapedAt, j.ID,
			); uerr != nil {
				log.Printf("[store] update job %s: %v", j.ID, uerr)
				res.Failed++
				continue
			}
			res.Updated++

		case errors.Is(err, pgx.ErrNoRows):
			if _, ierr := p.pool.Exec(ctx, `
INSERT INTO linkedin_jobs (
  job_id, job_title, company_name, location, job_url,
  job_description, seniority_level, employment_type,
  job_function, industries, applicants, date_posted, date_scraped
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
				j.ID, j.Title, j.Company, j.Location, j.URL,
				j.Detail.Description, j.Detail.SeniorityLevel, j.Detail.EmploymentType,
				j.Detail.JobFunction, j.Detail.Industries, j.Detail.Applicants, j.Detail.DatePosted,
				scrapedAt,
			); ierr != nil {
				log.Printf("[store] insert job %s: %v", j.ID, ierr)
				res.Failed++
				continue
			}
			res.Inserted++

		default:
			log.Printf("[store] lookup job %s: %v", j.ID, err)
			res.Failed++
		}
	}

	log.Printf("[store] done: inserted=%d updated=%d failed=%d", res.Inserted, res.Updated, res.Failed)
	return res, nil
}

func (p *Postgres) Lookup(ctx context.Context, id string) (*domain.Job, error) {
	var j domain.Job
	err := p.pool.QueryRow(ctx, `
SELECT job_id, job_title, company_name, location, job_url,
       job_description, seniority_level, employment_type,
       job_function, industries, applicants, date_posted
FROM linkedin_jobs WHERE job_id = $1;`, id).Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &j.URL,
		&j.Detail.Description, &j.Detail.SeniorityLevel, &j.Detail.EmploymentType,
		&j.Detail.JobFunction, &j.Detail.Industries, &j.Detail.Applicants, &j.Detail.DatePosted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup job %s: %w", id, err)
	}
	return &j, nil
}

func (p *Postgres) SaveAnalysis(ctx context.Context, a Analysis) error {
	missing, _ := json.Marshal(a.MissingKeywords)
	tips, _ := json.Marshal(a.ImprovementTips)
	shouldApply := "false"
	if a.ShouldApply {
		shouldApply = "true"
	}

	_, err := p.pool.Exec(ctx, `
INSERT INTO analyzed_jobs (
  job_id, match_score, should_apply, score_justification,
  judgment_justification, missing_keywords, improvement_tips,
  prompt_tokens, completion_tokens, total_tokens, date_processed
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (job_id) DO UPDATE SET
  match_score = EXCLUDED.match_score,
  should_apply = EXCLUDED.should_apply,
  score_justification = EXCLUDED.score_justification,
  judgment_justification = EXCLUDED.judgment_justification,
  missing_keywords = EXCLUDED.missing_keywords,
  improvement_tips = EXCLUDED.improvement_tips,
  prompt_tokens = EXCLUDED.prompt_tokens,
  completion_tokens = EXCLUDED.completion_tokens,
  total_tokens = EXCLUDED.total_tokens,
  date_processed = EXCLUDED.date_processed;`,
		a.JobID, a.MatchScore, shouldApply, a.ScoreJustification,
		a.JudgmentJustification, string(missing), string(tips),
		a.PromptTokens, a.CompletionTokens, a.TotalTokens,
		a.ProcessedAt.Format(scrapedAtFormat),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.JobID, err)
	}
	return nil
}

func (p *Postgres) LookupAnalysis(ctx context.Context, id string) (*Analysis, error) {
	var a Analysis
	var shouldApply, missing, tips, processed string
	err := p.pool.QueryRow(ctx, `
SELECT job_id, match_score, should_apply, score_justification,
       judgment_justification, missing_keywords, improvement_tips,
       prompt_tokens, completion_tokens, total_tokens, date_processed
FROM analyzed_jobs WHERE job_id = $1;`, id).Scan(
		&a.JobID, &a.MatchScore, &shouldApply, &a.ScoreJustification,
		&a.JudgmentJustification, &missing, &tips,
		&a.PromptTokens, &a.CompletionTokens, &a.TotalTokens, &processed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup analysis %s: %w", id, err)
	}

	a.ShouldApply = shouldApply == "true"
	_ = json.Unmarshal([]byte(missing), &a.MissingKeywords)
	_ = json.Unmarshal([]byte(tips), &a.ImprovementTips)
	if ts, perr := time.Parse(scrapedAtFormat, processed); perr == nil {
		a.ProcessedAt = ts
	}
	return &a, nil
}
