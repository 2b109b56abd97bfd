package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestUserStore_InsertAndFind(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewUserStore(clock.Now)
	ctx := context.Background()

	first, err := store.Insert(ctx, "kim", "kim1@example.com")
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = store.Insert(ctx, "lee", "lee@example.com")
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := store.Insert(ctx, "kim", "kim2@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, int64(1), first.Version)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, clock.now.Add(-2*time.Second), *first.CreatedAt)

	users, err := store.FindByName(ctx, "kim", 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
	assert.Equal(t, second.ID, users[1].ID)

	limited, err := store.FindByName(ctx, "kim", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, first.ID, limited[0].ID)

	none, err := store.FindByName(ctx, "park", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 3, store.Len())
}

func TestUserStore_ReturnsCopies(t *testing.T) {
	store := NewUserStore(nil)
	ctx := context.Background()

	user, err := store.Insert(ctx, "kim", "kim@example.com")
	require.NoError(t, err)
	user.Email = "mutated"

	users, err := store.FindByName(ctx, "kim", 0)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", users[0].Email)
}

func TestUserStore_UpdateByID(t *testing.T) {
	store := NewUserStore(nil)
	ctx := context.Background()

	user, err := store.Insert(ctx, "kim", "kim@example.com")
	require.NoError(t, err)

	email := "new@example.com"
	require.NoError(t, store.UpdateByID(ctx, user.ID, user.Version, models.UserUpdate{
		Email:      &email,
		Attributes: map[string]any{"age": 30},
	}))

	users, err := store.FindByName(ctx, "kim", 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, email, users[0].Email)
	assert.Equal(t, 30, users[0].Attributes["age"])
	assert.Equal(t, user.Version+1, users[0].Version)
	assert.Equal(t, user.CreatedAt, users[0].CreatedAt)

	err = store.UpdateByID(ctx, user.ID, user.Version, models.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, repositories.ErrVersionMismatch)

	err = store.UpdateByID(ctx, uuid.New(), 1, models.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserStore_DeleteByID(t *testing.T) {
	store := NewUserStore(nil)
	ctx := context.Background()

	user, err := store.Insert(ctx, "kim", "kim@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteByID(ctx, user.ID, user.Version+1), repositories.ErrVersionMismatch)
	require.NoError(t, store.DeleteByID(ctx, user.ID, user.Version))
	assert.ErrorIs(t, store.DeleteByID(ctx, user.ID, user.Version), repositories.ErrNotFound)

	users, err := store.FindByName(ctx, "kim", 0)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserStore_SeedWithoutCreatedAt(t *testing.T) {
	store := NewUserStore(nil)
	ctx := context.Background()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Seed(
		models.User{Name: "kim", Email: "dated@example.com", CreatedAt: &ts},
		models.User{Name: "kim", Email: "legacy@example.com"},
	)

	users, err := store.FindByName(ctx, "kim", 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "legacy@example.com", users[0].Email)
	assert.Nil(t, users[0].CreatedAt)
	assert.Equal(t, int64(1), users[0].Version)
}

func TestUserStore_Now(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewUserStore(clock.Now)

	now, err := store.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clock.now, now)
}

func TestUserStore_CancelledContext(t *testing.T) {
	store := NewUserStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, "kim", "kim@example.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.HealthCheck(ctx), context.Canceled)
}

func TestUserStore_ConcurrentWritersSingleWinner(t *testing.T) {
	store := NewUserStore(nil)
	ctx := context.Background()

	user, err := store.Insert(ctx, "kim", "kim@example.com")
	require.NoError(t, err)

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := "racer@example.com"
			if err := store.UpdateByID(ctx, user.ID, user.Version, models.UserUpdate{Email: &email}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestAuditStore(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()
	userID := uuid.New()

	older := models.NewAuditLog(models.AuditActionUserCreated, "user").WithResource(userID)
	older.Timestamp = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	newer := models.NewAuditLog(models.AuditActionUserUpdated, "user").WithResource(userID)
	newer.Timestamp = older.Timestamp.Add(time.Minute)
	other := models.NewAuditLog(models.AuditActionUserCreated, "user").WithResource(uuid.New())

	for _, entry := range []*models.AuditLog{older, newer, other} {
		require.NoError(t, store.Insert(ctx, entry))
	}

	logs, err := store.GetByResourceID(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionUserUpdated, logs[0].Action)
	assert.Equal(t, models.AuditActionUserCreated, logs[1].Action)

	limited, err := store.GetByResourceID(ctx, userID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	assert.Len(t, store.All(), 3)
}
