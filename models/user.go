package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Reserved user fields. Partial updates may not write id, createdAt or version.
const (
	FieldID        = "id"
	FieldName      = "name"
	FieldEmail     = "email"
	FieldCreatedAt = "createdAt"
	FieldVersion   = "version"
)

// User represents a user record in the document store
type User struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
	// Attributes holds pass-through fields written by partial updates
	Attributes map[string]any `json:"-" db:"attributes"`
	// CreatedAt is assigned by the store clock on insert; nil when the store has none
	CreatedAt *time.Time `json:"createdAt" db:"created_at"`
	// Version is bumped on every write and used as an optimistic-concurrency token
	Version int64 `json:"-" db:"version"`
}

// MarshalJSON flattens attributes into the record, the way a document
// is returned to clients. Reserved fields always win over attributes.
func (u User) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(u.Attributes)+4)
	for k, v := range u.Attributes {
		doc[k] = v
	}
	doc[FieldID] = u.ID.String()
	doc[FieldName] = u.Name
	doc[FieldEmail] = u.Email
	if u.CreatedAt != nil {
		doc[FieldCreatedAt] = u.CreatedAt.UTC().Format(time.RFC3339Nano)
	} else {
		doc[FieldCreatedAt] = nil
	}
	return json.Marshal(doc)
}

// UserUpdate is a validated partial update
type UserUpdate struct {
	Name       *string
	Email      *string
	Attributes map[string]any
}

// IsEmpty returns true if the update carries no fields
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && len(u.Attributes) == 0
}

// Apply writes the update onto a copy of the user and bumps its version
func (u UserUpdate) Apply(user User) User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if len(u.Attributes) > 0 {
		merged := make(map[string]any, len(user.Attributes)+len(u.Attributes))
		for k, v := range user.Attributes {
			merged[k] = v
		}
		for k, v := range u.Attributes {
			merged[k] = v
		}
		user.Attributes = merged
	}
	user.Version++
	return user
}

// IsReservedField returns true for fields that partial updates may not set
func IsReservedField(field string) bool {
	switch field {
	case FieldID, FieldCreatedAt, FieldVersion:
		return true
	}
	return false
}
