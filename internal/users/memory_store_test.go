package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStoreWithClock(newSteppingClock().Now)

	created, err := store.CreateUser(ctx, &CreateUserRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	fetched, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	// Returned records are copies
	fetched.Name = "mutated"
	again, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name)

	updated, err := store.UpdateUser(ctx, &UpdateUserRequest{ID: ID(created.ID), Name: "Ada K", Email: "ada@example.com", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada K", updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	require.NoError(t, store.DeleteUser(ctx, created.ID))
	_, err = store.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, store.DeleteUser(ctx, created.ID), ErrUserNotFound)
}

func TestInMemoryStoreIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	first, err := store.CreateUser(ctx, &CreateUserRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, first.ID))

	second, err := store.CreateUser(ctx, &CreateUserRequest{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestInMemoryStoreEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	a, err := store.CreateUser(ctx, &CreateUserRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, &CreateUserRequest{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, &CreateUserRequest{Name: "A2", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)

	// Exact comparison
	_, err = store.CreateUser(ctx, &CreateUserRequest{Name: "A3", Email: "A@example.com"})
	assert.NoError(t, err)

	// Keeping your own email is fine, taking another's is not
	_, err = store.UpdateUser(ctx, &UpdateUserRequest{ID: ID(a.ID), Name: "A", Email: "a@example.com"})
	assert.NoError(t, err)
	_, err = store.UpdateUser(ctx, &UpdateUserRequest{ID: ID(a.ID), Name: "A", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)

	exists, err := store.EmailExists(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.EmailExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStoreWithClock(newSteppingClock().Now)

	for _, req := range []CreateUserRequest{
		{Name: "Alice Johnson", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@johnson.org"},
		{Name: "Carol", Email: "carol@example.com"},
	} {
		req := req
		_, err := store.CreateUser(ctx, &req)
		require.NoError(t, err)
	}

	results, err := store.SearchUsers(ctx, "JOHNSON")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bob", results[0].Name)
	assert.Equal(t, "Alice Johnson", results[1].Name)

	results, err = store.SearchUsers(ctx, "nomatch")
	require.NoError(t, err)
	assert.Empty(t, results)
}
