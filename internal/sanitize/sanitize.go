// Package sanitize strips active content from cached HTML before it is
// exposed to API consumers or pushed over a live connection.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Sanitizer removes scripts, event handlers, and other executable content
// while keeping the page structure readable. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds a Sanitizer around a UGC policy, which permits common layout
// and formatting elements but no active content.
func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns the cleaned HTML.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
