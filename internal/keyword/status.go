package keyword

import (
	"encoding/json"
	"fmt"
)

// Status represents the lifecycle state of a keyword. The zero value is
// StatusPending. Statuses only move forward: pending -> in_progress ->
// completed|failed; completed and failed are terminal.
type Status int

// Keyword lifecycle states.
const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

// Wire forms of the four statuses. These strings are what persistence and the
// API exchange; note the hyphen in "in-progress".
const (
	statusPendingWire    = "pending"
	statusInProgressWire = "in-progress"
	statusCompletedWire  = "completed"
	statusFailedWire     = "failed"
)

// String returns the wire form of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return statusPendingWire
	case StatusInProgress:
		return statusInProgressWire
	case StatusCompleted:
		return statusCompletedWire
	case StatusFailed:
		return statusFailedWire
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus converts a wire string back into a Status.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case statusPendingWire:
		return StatusPending, nil
	case statusInProgressWire:
		return StatusInProgress, nil
	case statusCompletedWire:
		return StatusCompleted, nil
	case statusFailedWire:
		return StatusFailed, nil
	default:
		return StatusPending, fmt.Errorf("unknown keyword status %q", raw)
	}
}

// MarshalJSON serializes the status as its wire string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a wire string into the status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal keyword status: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
