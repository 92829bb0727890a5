package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User represents a contact record
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ID is a record identifier that accepts both JSON numbers and numeric strings,
// since browser clients frequently send ids taken from DOM attributes.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*id = 0
			return nil
		}
		parsed, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be an integer: %w", err)
	}
	*id = ID(n)
	return nil
}

// ParseID parses a positive integer record identifier
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be positive", s)
	}
	return ID(n), nil
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Normalize trims surrounding whitespace from every field
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

// Validate validates the create user request
func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if r.Email == "" {
		return NewValidationError("email", "email is required")
	}
	return nil
}

// UpdateUserRequest represents a full replacement of a user's mutable fields
type UpdateUserRequest struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Normalize trims surrounding whitespace from every field
func (r *UpdateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

// Validate validates the update user request
func (r *UpdateUserRequest) Validate() error {
	if r.ID <= 0 {
		return NewValidationError("id", "id is required")
	}
	if r.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if r.Email == "" {
		return NewValidationError("email", "email is required")
	}
	return nil
}
