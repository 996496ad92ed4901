package memory

import (
	"context"
	"sync"
	"time"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// ConnectionStore is an in-memory keyword.ConnectionStore.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns []keyword.Connection
}

// NewConnectionStore constructs a ConnectionStore.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{}
}

// Create records a new live connection.
func (s *ConnectionStore) Create(_ context.Context, conn keyword.Connection) error {
	if conn.UserID == "" || conn.ConnectionID == "" {
		return keyword.NewValidation("user id and connection id are required")
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = append(s.conns, conn)
	return nil
}

// LatestByUserID returns the most recently recorded connection for the user.
func (s *ConnectionStore) LatestByUserID(_ context.Context, userID string) (keyword.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.conns) - 1; i >= 0; i-- {
		if s.conns[i].UserID == userID {
			return s.conns[i], nil
		}
	}
	return keyword.Connection{}, keyword.NewNotFound("Can not get user connection")
}

// DeleteByConnectionID removes the row for a closed connection.
func (s *ConnectionStore) DeleteByConnectionID(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.conns[:0]
	for _, conn := range s.conns {
		if conn.ConnectionID != connectionID {
			kept = append(kept, conn)
		}
	}
	s.conns = kept
	return nil
}

// DeleteByUserID removes every connection recorded for the user.
func (s *ConnectionStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.conns[:0]
	for _, conn := range s.conns {
		if conn.UserID != userID {
			kept = append(kept, conn)
		}
	}
	s.conns = kept
	return nil
}
