package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, action, resource_type, resource_id, details,
			ip_address, user_agent, request_id, actor_sub, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		nullIfEmpty(log.Actor),
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// GetByResourceID retrieves audit logs for a resource, newest first
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, action, resource_type, resource_id, details,
		       ip_address, user_agent, request_id, actor_sub, timestamp
		FROM audit_logs
		WHERE resource_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		var (
			details   []byte
			ipAddress *string
			userAgent *string
			requestID *string
			actor     *string
		)
		if err := rows.Scan(
			&log.ID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&details,
			&ipAddress,
			&userAgent,
			&requestID,
			&actor,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		log.Details = details
		log.IPAddress = deref(ipAddress)
		log.UserAgent = deref(userAgent)
		log.RequestID = deref(requestID)
		log.Actor = deref(actor)
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return logs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
