package export

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"jobscout-engine/internal/domain"
)

// columns is the fixed export column set. Order matters to downstream
// spreadsheet consumers.
var columns = []string{
	"Job ID", "Job Title", "Company Name", "Location", "Job URL",
	"job_description", "seniority_level", "employment_type",
	"job_function", "industries", "applicants", "date_posted",
}

// Writer rewrites the export file wholesale on every run. A sidecar
// flock keeps two runs from clobbering each other's output.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write overwrites the export with the given records. Records without a
// resolved id are included; the CSV is the recall surface, the keyed
// store is the precision one.
func (w *Writer) Write(jobs []domain.Job) error {
	return w.writeFile(w.path, jobs)
}

// WritePartial is the best-effort recovery artifact written when a run
// dies mid-way with listings already collected.
func (w *Writer) WritePartial(jobs []domain.Job) error {
	return w.writeFile(w.path+".partial", jobs)
}

func (w *Writer) writeFile(path string, jobs []domain.Job) error {
	if len(jobs) == 0 {
		log.Printf("[export] no jobs to write")
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	fl := flock.New(w.path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock export file: %w", err)
	}
	if !locked {
		return fmt.Errorf("export file %s is locked by another run", w.path)
	}
	defer fl.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, j := range jobs {
		row := []string{
			j.ID, j.Title, j.Company, j.Location, j.URL,
			j.Detail.Description, j.Detail.SeniorityLevel, j.Detail.EmploymentType,
			j.Detail.JobFunction, j.Detail.Industries, j.Detail.Applicants, j.Detail.DatePosted,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for job %s: %w", j.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}

	log.Printf("[export] wrote %d job(s) to %s", len(jobs), path)
	return nil
}
