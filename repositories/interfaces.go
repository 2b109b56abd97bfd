package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/users-api/models"
)

var (
	// ErrNotFound is returned when no record matches
	ErrNotFound = errors.New("record not found")

	// ErrVersionMismatch is returned when a record changed after it was read
	ErrVersionMismatch = errors.New("record version mismatch")
)

// UserRepository is the document store holding user records
type UserRepository interface {
	// Insert stores a new user; the store assigns id, createdAt and version
	Insert(ctx context.Context, name, email string) (*models.User, error)

	// FindByName retrieves users with an exactly matching name, oldest first.
	// A limit <= 0 returns every match.
	FindByName(ctx context.Context, name string, limit int) ([]*models.User, error)

	// UpdateByID applies a partial update if the stored version still equals version
	UpdateByID(ctx context.Context, id uuid.UUID, version int64, update models.UserUpdate) error

	// DeleteByID removes a user if the stored version still equals version
	DeleteByID(ctx context.Context, id uuid.UUID, version int64) error

	// Now returns the store's clock
	Now(ctx context.Context) (time.Time, error)
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByResourceID retrieves audit logs for a resource, newest first
	GetByResourceID(ctx context.Context, resourceID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	AuditLogs AuditRepository
}
