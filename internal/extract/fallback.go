package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout-engine/internal/domain"
)

// minTitleLen is the shortest text the fallback will treat as a title.
const minTitleLen = 5

// FallbackJobs is the low-confidence pass used only when every structured
// card strategy came up empty for a page. It scans container-like
// elements for the first descendant whose text reads like a title, pairs
// it with the nearest hyperlink, and re-runs the id cascade on that URL.
// Company and location get the Unknown sentinel so downstream consumers
// can tell these records were not structurally extracted.
func FallbackJobs(doc *goquery.Document) []domain.Job {
	var out []domain.Job

	doc.Find("div[class], li[class]").Each(func(_ int, card *goquery.Selection) {
		title := ""
		card.Find("a, h3, strong, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			t := cleanText(el.Text())
			if len(t) > minTitleLen && !strings.HasPrefix(t, "http") {
				title = t
				return false
			}
			return true
		})
		if title == "" {
			return
		}

		jobURL := domain.NA
		if href, ok := card.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			jobURL = strings.TrimSpace(href)
		}

		j := domain.NewJob()
		j.Title = title
		j.URL = jobURL
		j.ID = IDFromURL(jobURL)
		j.Company = domain.Unknown
		j.Location = domain.Unknown
		out = append(out, j)
	})

	return out
}
