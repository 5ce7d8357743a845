package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"stylehub/internal/models"
)

type registerEnvelope struct {
	Success bool        `json:"success"`
	User    models.User `json:"user"`
	Error   string      `json:"error"`
}

func registerRequest(t *testing.T, body map[string]string) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterIgnoresClientSuppliedRole(t *testing.T) {
	ta := setupApp(t)

	// A role in the request body must not grant privileges.
	resp, err := ta.app.Test(registerRequest(t, map[string]string{
		"username": "sneaky",
		"email":    "sneaky@example.com",
		"password": "password123",
		"role":     models.RoleSuperAdmin,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created registerEnvelope
	decodeInto(t, resp, &created)
	assert.True(t, created.Success)
	assert.Equal(t, models.RoleUser, created.User.Role)

	stored, err := ta.users.GetByUsername("sneaky")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)

	// The issued token carries the user role and is rejected by the
	// admin-guarded routes.
	token := login(t, ta, "sneaky", "password123")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/fetch-all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = ta.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/coupons/fetch-all-coupons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = ta.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ta := setupApp(t)

	body := map[string]string{
		"username": "taken",
		"email":    "taken@example.com",
		"password": "password123",
	}
	resp, err := ta.app.Test(registerRequest(t, body), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = ta.app.Test(registerRequest(t, body), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var env registerEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "already taken")
}
