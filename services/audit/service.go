package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
	"go.uber.org/zap"
)

const resourceTypeUser = "user"

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for pending ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. Events are dropped when the buffer is full.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("request_id", event.Log.RequestID))
		return fmt.Errorf("audit event buffer full")
	}
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent processes a single audit event
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

// Convenience methods for logging user events

// LogUserCreated logs a user creation event
func (s *AuditService) LogUserCreated(ctx context.Context, user *models.User) error {
	log := newUserLog(ctx, models.AuditActionUserCreated, user)
	log.WithDetails(map[string]interface{}{
		"name":  user.Name,
		"email": user.Email,
	})

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserUpdated logs a user update event with the names of the changed fields
func (s *AuditService) LogUserUpdated(ctx context.Context, user *models.User, update models.UserUpdate) error {
	log := newUserLog(ctx, models.AuditActionUserUpdated, user)
	log.WithDetails(map[string]interface{}{
		"name":   user.Name,
		"fields": changedFields(update),
	})

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserDeleted logs a user deletion event
func (s *AuditService) LogUserDeleted(ctx context.Context, user *models.User) error {
	log := newUserLog(ctx, models.AuditActionUserDeleted, user)
	log.WithDetails(map[string]interface{}{
		"name":  user.Name,
		"email": user.Email,
	})

	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserDeleteRejected logs a delete refused by the embargo
func (s *AuditService) LogUserDeleteRejected(ctx context.Context, user *models.User, remainingSeconds int) error {
	log := newUserLog(ctx, models.AuditActionUserDeleteRejected, user)
	log.WithDetails(map[string]interface{}{
		"name":              user.Name,
		"remaining_seconds": remainingSeconds,
	})

	return s.LogEvent(&AuditEvent{Log: log})
}

func newUserLog(ctx context.Context, action models.AuditAction, user *models.User) *models.AuditLog {
	meta := RequestMetaFromContext(ctx)
	return models.NewAuditLog(action, resourceTypeUser).
		WithResource(user.ID).
		WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent).
		WithActor(meta.Actor)
}

func changedFields(update models.UserUpdate) []string {
	fields := make([]string, 0, len(update.Attributes)+2)
	if update.Name != nil {
		fields = append(fields, models.FieldName)
	}
	if update.Email != nil {
		fields = append(fields, models.FieldEmail)
	}
	for k := range update.Attributes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
