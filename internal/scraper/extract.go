// Package scraper fetches search results pages and extracts ad and link
// counts plus the raw HTML. Two implementations exist: a plain HTTP fetcher
// built on colly and a headless browser built on chromedp.
package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the results page. Top-of-page and remaining ad blocks carry
// distinct class names; both count toward total ads.
const (
	topAdsSelector       = ".KoyyGc"
	remainingAdsSelector = ".uEierd"
	linksSelector        = "a"
)

const (
	resultsPerPage = 10
	defaultBaseURL = "https://www.google.com/search"
)

// searchURL builds the results URL for a keyword and zero-based page index.
func searchURL(base, text string, page int) string {
	q := url.Values{}
	q.Set("q", text)
	q.Set("start", strconv.Itoa(page*resultsPerPage))
	return base + "?" + q.Encode()
}

// extractMetrics parses the page and counts ads and links.
func extractMetrics(html string) (totalAds, totalLinks int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, 0, fmt.Errorf("parse page html: %w", err)
	}
	totalAds = doc.Find(topAdsSelector).Length() + doc.Find(remainingAdsSelector).Length()
	totalLinks = doc.Find(linksSelector).Length()
	return totalAds, totalLinks, nil
}
