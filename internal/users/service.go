package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store  UserStore
	logger *zap.Logger
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore, logger *zap.Logger) *UserServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserServiceImpl{
		store:  store,
		logger: logger,
	}
}

// ListUsers returns all users, newest first
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SearchUsers matches term against name and email; a blank term lists everything
func (s *UserServiceImpl) SearchUsers(ctx context.Context, term string) ([]*User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListUsers(ctx)
	}

	users, err := s.store.SearchUsers(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a single user
func (s *UserServiceImpl) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, NewValidationError("id", "id is required")
	}
	return s.store.GetUser(ctx, id)
}

// CreateUser creates a new user after checking that the email is free
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The unique constraint still guards the window between this check and the insert
	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, NewEmailExistsError(0, nil)
	}

	user, err := s.store.CreateUser(ctx, req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			s.logger.Info("Concurrent create lost the email race")
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug("User created", zap.Int64("user_id", user.ID))
	return user, nil
}

// UpdateUser replaces a user's name, email and phone
func (s *UserServiceImpl) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Debug("User updated", zap.Int64("user_id", user.ID))
	return user, nil
}

// DeleteUser deletes a user
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewValidationError("id", "id is required")
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Debug("User deleted", zap.Int64("user_id", id))
	return nil
}
