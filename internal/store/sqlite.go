package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"jobscout-engine/internal/domain"
)

// schemaVersion is stamped into PRAGMA user_version after a successful
// migration.
const schemaVersion = 1

type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // sqlite wants a single writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate brings the schema to the current version. Gated on
// user_version so re-runs are a no-op and later schema revisions get a
// place to hang.
func (s *SQLite) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.ExecContext(ctx, `
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
`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
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
`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Upsert(ctx context.Context, jobs []domain.Job) (Result, error) {
	var res Result
	if len(jobs) == 0 {
		log.Printf("[store] no jobs to save")
		return res, nil
	}

	// One timestamp for the whole batch.
	scrapedAt := time.Now().Format(scrapedAtFormat)

	log.Printf("[store] saving %d job(s)", len(jobs))

	for _, j := range jobs {
		if !j.HasID() {
			log.Printf("[store] skipping job without valid id (title=%q)", j.Title)
			continue
		}

		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM linkedin_jobs WHERE job_id = ? LIMIT 1;`, j.ID).Scan(&one)

		switch {
		case err == nil:
			if _, uerr := s.db.ExecContext(ctx, `
UPDATE linkedin_jobs SET
  job_title = ?, company_name = ?, location = ?, job_url = ?,
  job_description = ?, seniority_level = ?, employment_type = ?,
  job_function = ?, industries = ?, applicants = ?, date_posted = ?,
  date_scraped = ?
WHERE job_id = ?;`,
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

		case err == sql.ErrNoRows:
			if _, ierr := s.db.ExecContext(ctx, `
INSERT INTO linkedin_jobs (
  job_id, job_title, company_name, location, job_url,
  job_description, seniority_level, employment_type,
  job_function, industries, applicants, date_posted, date_scraped
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
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

func (s *SQLite) Lookup(ctx context.Context, id string) (*domain.Job, error) {
	var j domain.Job
	err := s.db.QueryRowContext(ctx, `
SELECT job_id, job_title, company_name, location, job_url,
       job_description, seniority_level, employment_type,
       job_function, industries, applicants, date_posted
FROM linkedin_jobs WHERE job_id = ?;`, id).Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &j.URL,
		&j.Detail.Description, &j.Detail.SeniorityLevel, &j.Detail.EmploymentType,
		&j.Detail.JobFunction, &j.Detail.Industries, &j.Detail.Applicants, &j.Detail.DatePosted,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup job %s: %w", id, err)
	}
	return &j, nil
}

func (s *SQLite) SaveAnalysis(ctx context.Context, a Analysis) error {
	missing, _ := json.Marshal(a.MissingKeywords)
	tips, _ := json.Marshal(a.ImprovementTips)
	shouldApply := "false"
	if a.ShouldApply {
		shouldApply = "true"
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO analyzed_jobs (
  job_id, match_score, should_apply, score_justification,
  judgment_justification, missing_keywords, improvement_tips,
  prompt_tokens, completion_tokens, total_tokens, date_processed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET
  match_score = excluded.match_score,
  should_apply = excluded.should_apply,
  score_justification = excluded.score_justification,
  judgment_justification = excluded.judgment_justification,
  missing_keywords = excluded.missing_keywords,
  improvement_tips = excluded.improvement_tips,
  prompt_tokens = excluded.prompt_tokens,
  completion_tokens = excluded.completion_tokens,
  total_tokens = excluded.total_tokens,
  date_processed = excluded.date_processed;`,
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

func (s *SQLite) LookupAnalysis(ctx context.Context, id string) (*Analysis, error) {
	var a Analysis
	var shouldApply, missing, tips, processed string
	err := s.db.QueryRowContext(ctx, `
SELECT job_id, match_score, should_apply, score_justification,
       judgment_justification, missing_keywords, improvement_tips,
       prompt_tokens, completion_tokens, total_tokens, date_processed
FROM analyzed_jobs WHERE job_id = ?;`, id).Scan(
		&a.JobID, &a.MatchScore, &shouldApply, &a.ScoreJustification,
		&a.JudgmentJustification, &missing, &tips,
		&a.PromptTokens, &a.CompletionTokens, &a.TotalTokens, &processed,
	)
	if err == sql.ErrNoRows {
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
