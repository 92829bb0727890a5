package users

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshalJSON(t *testing.T) {
	cases := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{`{"id": 7}`, 7, false},
		{`{"id": "7"}`, 7, false},
		{`{"id": " 12 "}`, 12, false},
		{`{"id": null}`, 0, false},
		{`{"id": ""}`, 0, false},
		{`{}`, 0, false},
		{`{"id": "abc"}`, 0, true},
		{`{"id": "-3"}`, 0, true},
		{`{"id": 1.5}`, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			var req UpdateUserRequest
			err := json.Unmarshal([]byte(tc.input), &req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, req.ID)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, ID(42), id)

	for _, bad := range []string{"", "0", "-1", "4x", "9999999999999999999999"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestCreateUserRequestValidate(t *testing.T) {
	req := &CreateUserRequest{Name: "  Ada  ", Email: " ada@example.com ", Phone: " 555 "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "555", req.Phone)

	req = &CreateUserRequest{Name: " ", Email: "ada@example.com"}
	req.Normalize()
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestUpdateUserRequestValidate(t *testing.T) {
	req := &UpdateUserRequest{Name: "Ada", Email: "ada@example.com"}
	err := req.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)

	req.ID = 1
	assert.NoError(t, req.Validate())
}

func TestUserErrorsMatchSentinels(t *testing.T) {
	notFound := NewUserNotFoundError(3)
	assert.ErrorIs(t, notFound, ErrUserNotFound)
	assert.Contains(t, notFound.Error(), "not_found")

	exists := NewEmailExistsError(0, nil)
	assert.ErrorIs(t, exists, ErrEmailExists)
	assert.NotErrorIs(t, exists, ErrUserNotFound)
}
