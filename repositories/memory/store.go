// Package memory provides in-process implementations of the repository
// interfaces for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
)

// Clock returns the store's notion of now
type Clock func() time.Time

// UserStore keeps user records in memory, in insertion order
type UserStore struct {
	mu    sync.RWMutex
	clock Clock
	users map[uuid.UUID]models.User
	order []uuid.UUID
}

// NewUserStore creates an empty user store. A nil clock falls back to time.Now.
func NewUserStore(clock Clock) *UserStore {
	if clock == nil {
		clock = time.Now
	}
	return &UserStore{
		clock: clock,
		users: make(map[uuid.UUID]models.User),
	}
}

var _ repositories.UserRepository = (*UserStore)(nil)

// Insert stores a new user stamped with the store clock
func (s *UserStore) Insert(ctx context.Context, name, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.clock().UTC()
	user := models.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: &createdAt,
		Version:   1,
	}
	s.users[user.ID] = user
	s.order = append(s.order, user.ID)

	return cloneUser(user), nil
}

// Seed loads records as-is, keeping their ids and timestamps.
// Records without a createdAt stay without one.
func (s *UserStore) Seed(users ...models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range users {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if user.Version == 0 {
			user.Version = 1
		}
		if _, exists := s.users[user.ID]; !exists {
			s.order = append(s.order, user.ID)
		}
		s.users[user.ID] = *cloneUser(user)
	}
}

// FindByName returns users with an exactly matching name, oldest first
func (s *UserStore) FindByName(ctx context.Context, name string, limit int) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.User
	for _, id := range s.order {
		if user := s.users[id]; user.Name == name {
			matches = append(matches, cloneUser(user))
		}
	}

	// Records without a timestamp sort first, matching NULL ordering in postgres.
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].CreatedAt, matches[j].CreatedAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// UpdateByID applies a partial update when version is current
func (s *UserStore) UpdateByID(ctx context.Context, id uuid.UUID, version int64, update models.UserUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.current(id, version)
	if err != nil {
		return err
	}
	s.users[id] = update.Apply(user)
	return nil
}

// DeleteByID removes a user when version is current
func (s *UserStore) DeleteByID(ctx context.Context, id uuid.UUID, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.current(id, version); err != nil {
		return err
	}
	delete(s.users, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Now returns the store clock
func (s *UserStore) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return s.clock(), nil
}

// Len returns the number of stored users
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// HealthCheck reports only context cancellation; the store has no connection to lose
func (s *UserStore) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *UserStore) current(id uuid.UUID, version int64) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	if user.Version != version {
		return models.User{}, fmt.Errorf("user %s: %w", id, repositories.ErrVersionMismatch)
	}
	return user, nil
}

func cloneUser(user models.User) *models.User {
	if user.Attributes != nil {
		attrs := make(map[string]any, len(user.Attributes))
		for k, v := range user.Attributes {
			attrs[k] = v
		}
		user.Attributes = attrs
	}
	if user.CreatedAt != nil {
		createdAt := *user.CreatedAt
		user.CreatedAt = &createdAt
	}
	return &user
}
