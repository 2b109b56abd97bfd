// Package users orchestrates the write gate and the document store for
// user records.
package users

import (
	"context"
	"errors"

	"github.com/upb/users-api/internal/policy"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
	"github.com/upb/users-api/services"
	"go.uber.org/zap"
)

// AuditRecorder receives user lifecycle events
type AuditRecorder interface {
	LogUserCreated(ctx context.Context, user *models.User) error
	LogUserUpdated(ctx context.Context, user *models.User, update models.UserUpdate) error
	LogUserDeleted(ctx context.Context, user *models.User) error
	LogUserDeleteRejected(ctx context.Context, user *models.User, remainingSeconds int) error
}

// Service implements user operations
type Service struct {
	users  repositories.UserRepository
	audit  AuditRecorder
	logger *zap.Logger
}

// NewService creates a user service. audit may be nil.
func NewService(users repositories.UserRepository, audit AuditRecorder, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		audit:  audit,
		logger: logger,
	}
}

// Create validates and stores a new user
func (s *Service) Create(ctx context.Context, name, email string) (*models.User, error) {
	if name == "" || email == "" {
		return nil, services.ErrMissingCreateFields
	}
	if !policy.ValidateName(name) {
		return nil, services.ErrInvalidName
	}
	if !policy.ValidateEmail(email) {
		return nil, services.ErrInvalidEmail
	}

	user, err := s.users.Insert(ctx, name, email)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("name", name), zap.Error(err))
		return nil, services.WrapInternal(err)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("name", user.Name))

	if s.audit != nil {
		if err := s.audit.LogUserCreated(ctx, user); err != nil {
			s.logger.Warn("failed to record audit event", zap.Error(err))
		}
	}

	return user, nil
}

// FindByName returns every user with exactly this name
func (s *Service) FindByName(ctx context.Context, name string) ([]*models.User, error) {
	if name == "" {
		return nil, services.ErrMissingReadName
	}

	users, err := s.users.FindByName(ctx, name, 0)
	if err != nil {
		s.logger.Error("failed to find users", zap.String("name", name), zap.Error(err))
		return nil, services.WrapInternal(err)
	}
	if len(users) == 0 {
		return nil, services.ErrUserNotFound
	}

	return users, nil
}

// Update applies a partial update to the first user with this name.
// Email is checked before name.
func (s *Service) Update(ctx context.Context, name string, fields map[string]any) error {
	if name == "" {
		return services.ErrMissingUpdateInput
	}

	update, err := buildUpdate(fields)
	if err != nil {
		return err
	}
	if update.IsEmpty() {
		return services.ErrMissingUpdateInput
	}

	user, err := s.first(ctx, name)
	if err != nil {
		return err
	}

	if err := s.users.UpdateByID(ctx, user.ID, user.Version, update); err != nil {
		return s.mapWriteError("update", user, err)
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID.String()))

	if s.audit != nil {
		if err := s.audit.LogUserUpdated(ctx, user, update); err != nil {
			s.logger.Warn("failed to record audit event", zap.Error(err))
		}
	}

	return nil
}

// Delete removes the first user with this name once the embargo has passed.
// The store clock decides the record's age.
func (s *Service) Delete(ctx context.Context, name string) error {
	if name == "" {
		return services.ErrMissingDeleteName
	}

	user, err := s.first(ctx, name)
	if err != nil {
		return err
	}

	now, err := s.users.Now(ctx)
	if err != nil {
		s.logger.Error("failed to read store clock", zap.Error(err))
		return services.WrapInternal(err)
	}

	if user.CreatedAt == nil {
		s.logger.Warn("user has no createdAt, skipping delete embargo",
			zap.String("user_id", user.ID.String()))
	}

	decision := policy.CanDelete(user.CreatedAt, now)
	if !decision.Allowed {
		s.logger.Info("user delete rejected by embargo",
			zap.String("user_id", user.ID.String()),
			zap.Int("remaining_seconds", decision.RemainingSeconds))
		if s.audit != nil {
			if err := s.audit.LogUserDeleteRejected(ctx, user, decision.RemainingSeconds); err != nil {
				s.logger.Warn("failed to record audit event", zap.Error(err))
			}
		}
		return services.NewDeleteEmbargoError(decision.RemainingSeconds)
	}

	if err := s.users.DeleteByID(ctx, user.ID, user.Version); err != nil {
		return s.mapWriteError("delete", user, err)
	}

	s.logger.Info("user deleted", zap.String("user_id", user.ID.String()))

	if s.audit != nil {
		if err := s.audit.LogUserDeleted(ctx, user); err != nil {
			s.logger.Warn("failed to record audit event", zap.Error(err))
		}
	}

	return nil
}

// first returns the oldest user with this name
func (s *Service) first(ctx context.Context, name string) (*models.User, error) {
	users, err := s.users.FindByName(ctx, name, 1)
	if err != nil {
		s.logger.Error("failed to find user", zap.String("name", name), zap.Error(err))
		return nil, services.WrapInternal(err)
	}
	if len(users) == 0 {
		return nil, services.ErrUserNotFound
	}
	return users[0], nil
}

func (s *Service) mapWriteError(op string, user *models.User, err error) error {
	switch {
	case errors.Is(err, repositories.ErrVersionMismatch):
		s.logger.Warn("concurrent modification detected",
			zap.String("op", op),
			zap.String("user_id", user.ID.String()),
			zap.Int64("version", user.Version))
		return services.ErrConcurrentUpdate
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrUserNotFound
	default:
		s.logger.Error("failed to "+op+" user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return services.WrapInternal(err)
	}
}

// buildUpdate splits a request body into gated fields and pass-through attributes
func buildUpdate(fields map[string]any) (models.UserUpdate, error) {
	var update models.UserUpdate

	for key := range fields {
		if models.IsReservedField(key) {
			return update, services.ErrImmutableField
		}
	}

	if raw, ok := fields[models.FieldEmail]; ok {
		email, isString := raw.(string)
		if !isString || !policy.ValidateEmail(email) {
			return update, services.ErrInvalidEmail
		}
		update.Email = &email
	}

	if raw, ok := fields[models.FieldName]; ok {
		name, isString := raw.(string)
		if !isString || !policy.ValidateName(name) {
			return update, services.ErrInvalidName
		}
		update.Name = &name
	}

	for key, value := range fields {
		if key == models.FieldName || key == models.FieldEmail {
			continue
		}
		if update.Attributes == nil {
			update.Attributes = make(map[string]any)
		}
		update.Attributes[key] = value
	}

	return update, nil
}
