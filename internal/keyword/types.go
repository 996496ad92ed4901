package keyword

import "time"

// Keyword is a user-submitted search term tracked through the status
// lifecycle. Rows are created in bulk by ingestion and mutated only by the
// worker.
type Keyword struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"userId"`
	Text      string    `json:"keyword"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SearchResult holds the scrape metrics for one keyword. At most one row
// exists per keyword, created exactly once after a successful scrape. CacheID
// references the stored raw HTML; it is empty when no page cache is attached.
type SearchResult struct {
	ID         int64     `json:"id"`
	KeywordID  int64     `json:"keywordId"`
	TotalAds   int       `json:"totalAds"`
	TotalLinks int       `json:"totalLinks"`
	CacheID    string    `json:"htmlCacheId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PageCache is an immutable raw HTML blob addressed by surrogate id. The id
// is opaque so relational and blob backends can both serve it.
type PageCache struct {
	ID        string    `json:"id"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}

// Connection records a live push channel for a user. A user may hold several
// rows; the notifier picks the most recently recorded one.
type Connection struct {
	UserID       string    `json:"userId"`
	ConnectionID string    `json:"connectionId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Job is the queued unit of work carrying everything a worker needs to
// process one keyword.
type Job struct {
	OwnerID     string `json:"owner_id"`
	KeywordID   int64  `json:"keyword_id"`
	KeywordText string `json:"keyword_text"`
}

// ScrapeResult is what a Scraper returns for one results page. Counts of
// zero are valid; "unknown" is expressed by the keyword never completing,
// not by zeros.
type ScrapeResult struct {
	TotalAds   int
	TotalLinks int
	HTML       string
}

// Report is the payload returned by the report read path and pushed over the
// live connection once a keyword completes. HTML is always sanitized before
// it lands here.
type Report struct {
	KeywordID  int64     `json:"keywordId"`
	Keyword    string    `json:"keyword"`
	Status     Status    `json:"status"`
	TotalAds   int       `json:"totalAds"`
	TotalLinks int       `json:"totalLinks"`
	HTML       string    `json:"htmlCachePage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ListParams controls the keyword listing read path. Page is 1-based;
// values below 1 mean the first page.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

// KeywordPage is one page of the keyword listing plus the total row count.
type KeywordPage struct {
	Keywords []Keyword `json:"keywords"`
	Total    int       `json:"total"`
}
