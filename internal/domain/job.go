package domain

const (
	// NA is the sentinel for a field the extraction cascades exhausted
	// without resolving.
	NA = "N/A"

	// Unknown marks company/location produced by the low-confidence
	// generic fallback path. Kept distinct from NA so downstream
	// consumers can tell the two origins apart.
	Unknown = "unknown"
)

// Detail holds the fields scraped from a job's detail view. It is filled
// in once by the enrichment stage; until then every field is NA.
type Detail struct {
	Description    string
	SeniorityLevel string
	EmploymentType string
	JobFunction    string
	Industries     string
	Applicants     string
	DatePosted     string
}

// Job is one discovered listing. Everything except Detail is fixed once
// the card extractor produces it.
type Job struct {
	ID       string
	Title    string
	Company  string
	Location string
	URL      string
	Detail   Detail
}

func EmptyDetail() Detail {
	return Detail{
		Description:    NA,
		SeniorityLevel: NA,
		EmploymentType: NA,
		JobFunction:    NA,
		Industries:     NA,
		Applicants:     NA,
		DatePosted:     NA,
	}
}

// NewJob returns a job with every field at its sentinel.
func NewJob() Job {
	return Job{
		ID:       NA,
		Title:    NA,
		Company:  NA,
		Location: NA,
		URL:      NA,
		Detail:   EmptyDetail(),
	}
}

// HasID reports whether the listing resolved a usable identifier. Jobs
// without one are exported but never enriched or persisted.
func (j Job) HasID() bool {
	return j.ID != "" && j.ID != NA
}
