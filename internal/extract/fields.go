package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout-engine/internal/domain"
)

// BaseURL is the origin relative job links are resolved against.
const BaseURL = "https://www.linkedin.com"

var reTrailingID = regexp.MustCompile(`-(\d+)/?\?`)

// fieldStrategy tries to pull one field out of a card fragment. Empty
// string means the strategy had nothing; the cascade moves on.
type fieldStrategy func(card *goquery.Selection) string

func firstOf(card *goquery.Selection, strategies []fieldStrategy) string {
	for _, try := range strategies {
		if v := try(card); v != "" {
			return v
		}
	}
	return domain.NA
}

// Extract pulls the listing fields out of one card fragment. Every field
// falls through its own cascade independently; exhaustion yields the NA
// sentinel, never an error.
func Extract(card *goquery.Selection) domain.Job {
	j := domain.NewJob()
	j.Title = firstOf(card, titleStrategies)
	j.URL = firstOf(card, urlStrategies)
	j.Company = firstOf(card, companyStrategies)
	j.Location = firstOf(card, locationStrategies)
	j.ID = extractID(card, j.URL)
	return j
}

var titleStrategies = []fieldStrategy{
	// Accessible label on the card's link carries the clean title.
	func(card *goquery.Selection) string {
		v, _ := card.Find("a[aria-label]").First().Attr("aria-label")
		return strings.TrimSpace(v)
	},
	// Bold text inside the visually-hidden decoration span.
	func(card *goquery.Selection) string {
		return cleanText(card.Find("span[aria-hidden='true']").First().Find("strong").First().Text())
	},
	// Known title-bearing element/class combinations, old and new layout.
	func(card *goquery.Selection) string {
		for _, cls := range []string{"job-card-list__title", "base-search-card__title", "job-card-container__link"} {
			sel := card.Find("a[class*='" + cls + "'], h3[class*='" + cls + "']").First()
			if t := cleanText(sel.Text()); t != "" {
				return t
			}
		}
		return ""
	},
}

var urlStrategies = []fieldStrategy{
	func(card *goquery.Selection) string {
		href, ok := card.Find("a[href*='/jobs/view/']").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return ""
		}
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "http") {
			href = BaseURL + href
		}
		return href
	},
}

var companyStrategies = []fieldStrategy{
	func(card *goquery.Selection) string {
		return cleanText(card.Find("span[class*='qHYMDgztNEREKlSMgIjhyyyqAxxeVviD']").First().Text())
	},
	func(card *goquery.Selection) string {
		return cleanText(card.Find("div.artdeco-entity-lockup__subtitle").First().Text())
	},
	func(card *goquery.Selection) string {
		return cleanText(card.Find("h4[class*='base-search-card__subtitle']").First().Text())
	},
}

var locationStrategies = []fieldStrategy{
	func(card *goquery.Selection) string {
		li := card.Find("li[class*='bKQmZihARnOXesSdpcmicRgZiMVAUmlKncY']").First()
		return cleanText(li.Find("span").First().Text())
	},
	// Any ltr span directly under a list item that isn't the Easy Apply
	// badge is the location in the current layout.
	func(card *goquery.Selection) string {
		var loc string
		card.Find("span[dir='ltr']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !s.Parent().Is("li") {
				return true
			}
			t := cleanText(s.Text())
			if t == "" || t == "Easy Apply" {
				return true
			}
			loc = t
			return false
		})
		return loc
	},
	func(card *goquery.Selection) string {
		return cleanText(card.Find("span.job-search-card__location").First().Text())
	},
}

// extractID resolves the job identifier: the card attribute wins, then
// the URL is mined two ways.
func extractID(card *goquery.Selection, jobURL string) string {
	if id, ok := card.Attr("data-job-id"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return IDFromURL(jobURL)
}

// IDFromURL digs a numeric job id out of a /jobs/view/ URL. Slugs look
// like ".../title-at-company-4012345678?refId=..."; the digits between
// the "at-" token and the query marker are the id. A trailing-number
// regex is the last resort.
func IDFromURL(jobURL string) string {
	if jobURL == "" || jobURL == domain.NA || !strings.Contains(jobURL, "/jobs/view/") {
		return domain.NA
	}

	for _, part := range strings.Split(jobURL, "/") {
		if !strings.Contains(part, "at-") || !strings.Contains(part, "?") {
			continue
		}
		tail := part[strings.LastIndex(part, "at-")+len("at-"):]
		tail = strings.SplitN(tail, "?", 2)[0]
		if digits := keepDigits(tail); digits != "" {
			return digits
		}
	}

	if m := reTrailingID.FindStringSubmatch(jobURL); len(m) == 2 {
		return m[1]
	}
	return domain.NA
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
