package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// cardStrategy finds candidate listing fragments in a parsed search page.
// Strategies are ordered most layout-specific first because the specific
// shapes are far less likely to produce false positives.
type cardStrategy struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// The obfuscated class names are what LinkedIn currently ships; they are
// matched by substring so a build-hash suffix does not break them.
var cardStrategies = []cardStrategy{
	{"data-job-id", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div[data-job-id]")
	}},
	{"occludable-update", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("li.occludable-update")
	}},
	{"base-card", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div.base-card")
	}},
	{"job-card-container", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div[class*='job-card-container']")
	}},
	{"results-list", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("ul[class*='osvXwttVlxSToASQQxfDDAjwVGNfaCA']").Find("li")
	}},
}

// Cards returns the listing fragments of a search page. The cascade stops
// at the first strategy producing a non-empty result; nothing is cached
// between calls because the page structure can change from page to page.
// An empty result means the caller should fall back to FallbackJobs.
func Cards(doc *goquery.Document) []*goquery.Selection {
	for _, strat := range cardStrategies {
		sel := strat.find(doc)
		if sel.Length() == 0 {
			continue
		}
		out := make([]*goquery.Selection, 0, sel.Length())
		sel.Each(func(_ int, s *goquery.Selection) {
			out = append(out, s)
		})
		return out
	}
	return nil
}
