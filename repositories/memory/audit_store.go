package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
)

// AuditStore keeps audit entries in memory
type AuditStore struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

// NewAuditStore creates an empty audit store
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

var _ repositories.AuditRepository = (*AuditStore)(nil)

// Insert appends an audit entry
func (s *AuditStore) Insert(ctx context.Context, log *models.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, *log)
	return nil
}

// GetByResourceID returns entries for a resource, newest first
func (s *AuditStore) GetByResourceID(ctx context.Context, resourceID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []*models.AuditLog
	for i := range s.logs {
		if id := s.logs[i].ResourceID; id != nil && *id == resourceID {
			entry := s.logs[i]
			logs = append(logs, &entry)
		}
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// All returns a snapshot of every entry in insertion order
func (s *AuditStore) All() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AuditLog, len(s.logs))
	copy(out, s.logs)
	return out
}
