package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugserv/internal/repos"
)

func (e *env) userID(username string) int64 {
	e.t.Helper()
	users, err := repos.NewUserRepo(e.db).List(context.Background(), repos.UserFilter{})
	require.NoError(e.t, err)
	for _, u := range users {
		if u.Username == username {
			return u.ID
		}
	}
	e.t.Fatalf("user %q not found", username)
	return 0
}

func TestUsersRequireAdmin(t *testing.T) {
	e := newEnv(t)
	admin := e.admin("admin")
	editor := e.editor("joao")

	r := e.call("GET", "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = e.call("GET", "/api/users", editor, nil)
	assert.Equal(t, http.StatusForbidden, r.Status)
	assert.Equal(t, "forbidden", r.Body.Get("error").String())

	r = e.call("GET", "/api/users.php", admin, nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Len(t, r.Body.Get("users").Array(), 2)
	for _, u := range r.Body.Get("users").Array() {
		assert.False(t, u.Get("password").Exists())
	}
}

func TestCatalogWritesRequireSession(t *testing.T) {
	e := newEnv(t)
	e.admin("admin")
	editor := e.editor("joao")

	r := e.call("POST", "/api/categories", "", map[string]any{"name": "Andaimes"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Authentication token missing", r.Body.Get("message").String())

	r = e.call("POST", "/api/categories", "not-a-token", map[string]any{"name": "Andaimes"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Invalid or expired token", r.Body.Get("message").String())

	// Editors manage the catalog.
	r = e.call("POST", "/api/categories", editor, map[string]any{"name": "Andaimes"})
	assert.Equal(t, http.StatusCreated, r.Status, r.Raw)

	r = e.call("DELETE", "/api/equipments?id=1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
}

func TestUserCreateAndDuplicates(t *testing.T) {
	e := newEnv(t)
	admin := e.admin("admin")

	r := e.call("POST", "/api/users", admin, map[string]any{
		"username": "ana", "email": "ana@example.com", "password": "secret123", "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	id := r.Body.Get("id").Int()

	got := e.call("GET", "/api/users?id="+itoa(id), admin, nil)
	require.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "ana@example.com", got.Body.Get("user.email").String())
	assert.Equal(t, "editor", got.Body.Get("user.role").String())
	assert.Equal(t, "active", got.Body.Get("user.status").String())

	r = e.call("POST", "/api/users", admin, map[string]any{
		"username": "ana", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "Username already exists", r.Body.Get("message").String())

	r = e.call("POST", "/api/users", admin, map[string]any{
		"username": "ana2", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "Email already registered", r.Body.Get("message").String())

	r = e.call("POST", "/api/users", admin, map[string]any{
		"username": "bob", "email": "bob@example.com", "password": "secret123", "role": "root",
	})
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestAdminGuards(t *testing.T) {
	e := newEnv(t)
	admin := e.admin("admin")
	self := e.userID("admin")

	r := e.call("DELETE", "/api/users?id="+itoa(self), admin, nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "You cannot delete your own account", r.Body.Get("message").String())

	r = e.call("PUT", "/api/users?id="+itoa(self), admin, map[string]any{"role": "editor"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "Cannot remove the last active administrator", r.Body.Get("message").String())

	// With a second admin either one can go.
	e.admin("root")
	r = e.call("DELETE", "/api/users?id="+itoa(e.userID("root")), admin, nil)
	assert.Equal(t, http.StatusOK, r.Status, r.Raw)
	assert.Equal(t, "User deleted", r.Body.Get("message").String())

	r = e.call("DELETE", "/api/users?id=999", admin, nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	r = e.call("DELETE", "/api/users", admin, nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "id is required", r.Body.Get("message").String())
}

func TestDashboardAndSyncAccess(t *testing.T) {
	e := newEnv(t)
	admin := e.admin("admin")
	editor := e.editor("joao")

	r := e.call("GET", "/api/dashboard", editor, nil)
	assert.Equal(t, http.StatusOK, r.Status)
	r = e.call("GET", "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = e.call("POST", "/api/maintenance/sync-categories", editor, nil)
	assert.Equal(t, http.StatusForbidden, r.Status)
	r = e.call("POST", "/api/maintenance/sync-categories", admin, nil)
	assert.Equal(t, http.StatusOK, r.Status, r.Raw)
	r = e.call("GET", "/api/maintenance/sync-categories", admin, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, r.Status)
}
