package clerk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUserRole(t *testing.T) {
	var got metadataUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/users/user_42/metadata", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user_42"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", zerolog.Nop())
	err := c.UpdateUserRole(context.Background(), "user_42", PublicMetadata{Role: "doctor", NutriCode: "NT2025-42"})
	require.NoError(t, err)
	assert.Equal(t, "doctor", got.PublicMetadata.Role)
	assert.Equal(t, "NT2025-42", got.PublicMetadata.NutriCode)
}

func TestUpdateUserRole_ErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"not found","long_message":"User not found","code":"resource_not_found"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", zerolog.Nop())
	err := c.UpdateUserRole(context.Background(), "user_missing", PublicMetadata{Role: "patient"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUpdateUserRole_NotConfigured(t *testing.T) {
	c := NewClient("", "", zerolog.Nop())
	err := c.UpdateUserRole(context.Background(), "user_1", PublicMetadata{Role: "admin"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
