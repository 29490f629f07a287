package enrich

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/extract"
)

// DetailURL builds the job view used for detail fetches. The title and
// location ride along because the search endpoint needs them to resolve
// the currentJobId pane.
func DetailURL(id, title, location string) string {
	return fmt.Sprintf(
		"%s/jobs/search/?currentJobId=%s&keywords=%s&location=%s&position=1&pageNum=0",
		extract.BaseURL, id,
		strings.ReplaceAll(title, " ", "%20"),
		strings.ReplaceAll(location, " ", "%20"),
	)
}

// detailProbes mark the description-bearing region of a detail page.
var detailProbes = []string{
	"div.description__text",
	"div.show-more-less-html__markup",
}

// ParseDetail runs the per-field detail cascades over a rendered detail
// page. Each field resolves independently; whatever cannot be found stays
// at its NA sentinel.
func ParseDetail(markup string) domain.Detail {
	d := domain.EmptyDetail()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return d
	}

	if txt := cleanText(doc.Find("div.show-more-less-html__markup").First().Text()); txt != "" {
		d.Description = txt
	}

	// Criteria list: header text decides which field the value feeds.
	doc.Find("ul.description__job-criteria-list li.description__job-criteria-item").Each(func(_ int, li *goquery.Selection) {
		header := strings.ToLower(cleanText(li.Find("h3.description__job-criteria-subheader").First().Text()))
		value := cleanText(li.Find("span.description__job-criteria-text").First().Text())
		if header == "" || value == "" {
			return
		}
		switch {
		case strings.Contains(header, "seniority level"):
			d.SeniorityLevel = value
		case strings.Contains(header, "employment type"):
			d.EmploymentType = value
		case strings.Contains(header, "job function"):
			d.JobFunction = value
		case strings.Contains(header, "industries"):
			d.Industries = value
		}
	})

	d.Applicants = extractApplicants(doc)

	if ts, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(ts) != "" {
		d.DatePosted = strings.TrimSpace(ts)
	}

	return d
}

// extractApplicants tries the caption class, then the "people clicked
// apply" call-to-action span, then a generic scan for keyword-bearing
// spans.
func extractApplicants(doc *goquery.Document) string {
	if txt := cleanText(doc.Find("span.num-applicants__caption").First().Text()); txt != "" {
		return txt
	}
	if txt := cleanText(doc.Find("span.tvm__text.tvm__text--positive").First().Text()); txt != "" {
		return txt
	}

	out := domain.NA
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := cleanText(s.Text())
		low := strings.ToLower(txt)
		if strings.Contains(low, "applicants") || strings.Contains(low, "people clicked apply") {
			out = txt
			return false
		}
		return true
	})
	return out
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
