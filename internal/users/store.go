package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// UserSchema represents the users table schema in PostgreSQL
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Phone     string    `bun:"phone,notnull,default:''" json:"phone"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Models lists the bun models owned by this package, for table creation
func Models() []interface{} {
	return []interface{}{
		(*UserSchema)(nil),
	}
}

// Indexes lists the secondary indexes for the users table
var Indexes = []string{
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC, id DESC)`,
}

// PostgresStore implements the UserStore interface using PostgreSQL
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new user store instance
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// ListUsers returns every user, newest first
func (s *PostgresStore) ListUsers(ctx context.Context) ([]*User, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return schemasToUsers(schemas), nil
}

// SearchUsers returns users whose name or email contains term, ignoring case
func (s *PostgresStore) SearchUsers(ctx context.Context, term string) ([]*User, error) {
	pattern := "%" + escapeLike(term) + "%"

	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Where("name ILIKE ? OR email ILIKE ?", pattern, pattern).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return schemasToUsers(schemas), nil
}

// GetUser retrieves a user by id
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	var schema UserSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewUserNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return UserSchemaToUser(schema), nil
}

// CreateUser inserts a user; id and timestamps are assigned by the database
func (s *PostgresStore) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	schema := UserSchema{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	_, err := s.db.NewInsert().
		Model(&schema).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, NewEmailExistsError(0, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return UserSchemaToUser(schema), nil
}

// UpdateUser replaces name, email and phone and bumps updated_at
func (s *PostgresStore) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error) {
	id := int64(req.ID)

	var schema UserSchema
	err := s.db.NewUpdate().
		Model(&schema).
		Set("name = ?", req.Name).
		Set("email = ?", req.Email).
		Set("phone = ?", req.Phone).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewUserNotFoundError(id)
		}
		if isUniqueViolation(err) {
			return nil, NewEmailExistsError(id, err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return UserSchemaToUser(schema), nil
}

// DeleteUser removes a user
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return NewUserNotFoundError(id)
	}

	return nil
}

// EmailExists checks whether any user has exactly this email
func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*UserSchema)(nil)).
		Where("email = ?", email).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgerrcode.UniqueViolation
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside a LIKE pattern
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Helper conversion functions
func UserSchemaToUser(schema UserSchema) *User {
	return &User{
		ID:        schema.ID,
		Name:      schema.Name,
		Email:     schema.Email,
		Phone:     schema.Phone,
		CreatedAt: schema.CreatedAt,
		UpdatedAt: schema.UpdatedAt,
	}
}

func schemasToUsers(schemas []UserSchema) []*User {
	users := make([]*User, len(schemas))
	for i, schema := range schemas {
		users[i] = UserSchemaToUser(schema)
	}
	return users
}
