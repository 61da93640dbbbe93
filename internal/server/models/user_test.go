package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestToProfile_AllowList(t *testing.T) {
	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	u := &User{
		ID:                 "u-1",
		Email:              "a@x.io",
		PasswordHash:       "$2a$10$hash",
		Name:               "A",
		IsVerified:         true,
		VerificationToken:  ptr("123456"),
		ResetPasswordToken: ptr("deadbeef"),
		LastLogin:          &last,
	}

	b, err := json.Marshal(ToProfile(u))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))

	assert.ElementsMatch(t, []string{"id", "email", "name", "isVerified", "lastLoginAt"}, keys(got))
	assert.NotContains(t, string(b), "$2a$10$hash")
	assert.NotContains(t, string(b), "deadbeef")
	assert.NotContains(t, string(b), "123456")
}

func TestToProfile_OmitsNeverLoggedIn(t *testing.T) {
	b, err := json.Marshal(ToProfile(&User{ID: "u-2", Email: "b@x.io", Name: "B"}))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "lastLoginAt")
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
