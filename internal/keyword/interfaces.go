package keyword

import (
	"context"
	"time"
)

// Store persists keyword records and owns the status state machine's
// persisted state.
type Store interface {
	CreateBulk(ctx context.Context, ownerID string, texts []string) ([]Keyword, error)
	Get(ctx context.Context, id int64) (Keyword, error)
	List(ctx context.Context, ownerID string, params ListParams) (KeywordPage, error)
	// UpdateStatus moves a keyword to the given status. It returns a
	// NotFoundError when no row exists for the id.
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// ResultStore persists per-keyword scrape metrics.
type ResultStore interface {
	Create(ctx context.Context, result SearchResult) (SearchResult, error)
	GetByKeywordID(ctx context.Context, keywordID int64) (SearchResult, error)
}

// CacheStore persists raw HTML blobs addressed by surrogate id. Blobs are
// immutable once written.
type CacheStore interface {
	Put(ctx context.Context, html string) (string, error)
	Get(ctx context.Context, id string) (PageCache, error)
}

// ConnectionStore tracks live push connections per user.
type ConnectionStore interface {
	Create(ctx context.Context, conn Connection) error
	// LatestByUserID returns the most recently recorded connection for the
	// user, or a NotFoundError when the user has none.
	LatestByUserID(ctx context.Context, userID string) (Connection, error)
	DeleteByConnectionID(ctx context.Context, connectionID string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// Queue carries jobs from ingestion to the workers. Delivery is at least
// once with no ordering guarantee across jobs; enqueue has no side effect on
// keyword state.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
}

// Scraper fetches one search results page for a keyword and extracts ad and
// link counts plus the raw HTML. Implementations must honor ctx deadlines.
type Scraper interface {
	Scrape(ctx context.Context, text string, page int) (ScrapeResult, error)
}

// Notifier pushes a completed keyword's report to the owner's live
// connection. It is best effort: every failure is logged and swallowed, and
// it never mutates keyword or result state.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, keywordID int64)
}

// Pusher delivers a named event to a single live connection. The websocket
// hub satisfies this so the notifier stays transport-agnostic.
type Pusher interface {
	Push(ctx context.Context, connectionID, event string, payload any) error
}

// Sanitizer strips active content from HTML before external exposure.
type Sanitizer interface {
	Sanitize(html string) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces surrogate ids (UUIDs) for caches and connections.
type IDGenerator interface {
	NewID() (string, error)
}
