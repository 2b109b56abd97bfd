package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/repositories"
	"go.uber.org/zap"
)

const userColumns = `id, name, email, attributes, created_at, version`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Insert creates a new user. id, created_at and version come from column defaults.
func (r *UserRepository) Insert(ctx context.Context, name, email string) (*models.User, error) {
	query := `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, name, email))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()))
	return user, nil
}

// FindByName retrieves users by exact name, oldest first
func (r *UserRepository) FindByName(ctx context.Context, name string, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE name = $1
		ORDER BY created_at ASC NULLS FIRST, id ASC`
	args := []interface{}{name}
	if limit > 0 {
		query += `
		LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// UpdateByID applies a partial update guarded by the version token
func (r *UserRepository) UpdateByID(ctx context.Context, id uuid.UUID, version int64, update models.UserUpdate) error {
	setClauses := make([]string, 0, 4)
	args := []interface{}{id, version}

	if update.Name != nil {
		args = append(args, *update.Name)
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Email != nil {
		args = append(args, *update.Email)
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(update.Attributes) > 0 {
		attrs, err := json.Marshal(update.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode attributes: %w", err)
		}
		args = append(args, string(attrs))
		setClauses = append(setClauses, fmt.Sprintf("attributes = attributes || $%d::jsonb", len(args)))
	}
	setClauses = append(setClauses, "version = version + 1")

	query := `UPDATE users SET ` + strings.Join(setClauses, ", ") + ` WHERE id = $1 AND version = $2`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := r.checkAffected(ctx, result, id); err != nil {
		return err
	}

	r.logger.Debug("user updated", zap.String("id", id.String()))
	return nil
}

// DeleteByID deletes a user guarded by the version token
func (r *UserRepository) DeleteByID(ctx context.Context, id uuid.UUID, version int64) error {
	query := `DELETE FROM users WHERE id = $1 AND version = $2`

	result, err := r.db.ExecContext(ctx, query, id, version)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := r.checkAffected(ctx, result, id); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.String("id", id.String()))
	return nil
}

// Now returns the database server clock
func (r *UserRepository) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to read database clock: %w", err)
	}
	return now, nil
}

// checkAffected tells a vanished row apart from a stale version
func (r *UserRepository) checkAffected(ctx context.Context, result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return fmt.Errorf("user %s: %w", id, repositories.ErrVersionMismatch)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user      models.User
		attrs     []byte
		createdAt sql.NullTime
	)

	if err := row.Scan(&user.ID, &user.Name, &user.Email, &attrs, &createdAt, &user.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}

	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &user.Attributes); err != nil {
			return nil, fmt.Errorf("failed to decode attributes: %w", err)
		}
	}
	if createdAt.Valid {
		t := createdAt.Time
		user.CreatedAt = &t
	}

	return &user, nil
}
