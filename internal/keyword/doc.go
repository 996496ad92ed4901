// Package keyword defines the core types and interfaces shared across the
// scraping pipeline: keyword records and their status lifecycle, scrape
// results, cached pages, live connections, and the store/queue/scraper
// contracts the rest of the service is built against.
package keyword
