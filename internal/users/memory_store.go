package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryStore implements UserStore with in-memory storage
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]*User
	nextID int64
	now    func() time.Time
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithClock(time.Now)
}

// NewInMemoryStoreWithClock creates an in-memory store that stamps records using now
func NewInMemoryStoreWithClock(now func() time.Time) *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[int64]*User),
		nextID: 1,
		now:    now,
	}
}

// ListUsers returns every user, newest first
func (s *InMemoryStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(*User) bool { return true }), nil
}

// SearchUsers returns users whose name or email contains term, ignoring case
func (s *InMemoryStore) SearchUsers(ctx context.Context, term string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(term)
	return s.collect(func(u *User) bool {
		return strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle)
	}), nil
}

// GetUser retrieves a user by id
func (s *InMemoryStore) GetUser(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, NewUserNotFoundError(id)
	}

	copied := *user
	return &copied, nil
}

// CreateUser stores a new user with the next id
func (s *InMemoryStore) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(req.Email, 0) {
		return nil, NewEmailExistsError(0, nil)
	}

	now := s.now()
	user := &User{
		ID:        s.nextID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.users[user.ID] = user

	copied := *user
	return &copied, nil
}

// UpdateUser replaces name, email and phone and bumps updated_at
func (s *InMemoryStore) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := int64(req.ID)
	user, exists := s.users[id]
	if !exists {
		return nil, NewUserNotFoundError(id)
	}

	if s.emailTaken(req.Email, id) {
		return nil, NewEmailExistsError(id, nil)
	}

	// copy-on-write
	updated := *user
	updated.Name = req.Name
	updated.Email = req.Email
	updated.Phone = req.Phone
	updated.UpdatedAt = s.now()
	s.users[id] = &updated

	copied := updated
	return &copied, nil
}

// DeleteUser removes a user
func (s *InMemoryStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return NewUserNotFoundError(id)
	}

	delete(s.users, id)
	return nil
}

// EmailExists checks whether any user has exactly this email
func (s *InMemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emailTaken(email, 0), nil
}

// emailTaken must be called with the lock held
func (s *InMemoryStore) emailTaken(email string, exceptID int64) bool {
	for id, user := range s.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

// collect must be called with the lock held
func (s *InMemoryStore) collect(keep func(*User) bool) []*User {
	result := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		if keep(user) {
			copied := *user
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result
}
