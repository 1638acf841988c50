package auth_test

import (
	"testing"

	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)

	t.Run("Success - Login with username", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/login", map[string]string{
			"username": "admin",
			"password": "password123",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		result := testutils.AssertSuccess(t, resp)
		assert.NotEmpty(t, result.Data["token"])
		assert.EqualValues(t, 3600, result.Data["expiresIn"])

		user := result.Data["user"].(map[string]interface{})
		assert.Equal(t, admin.ID, user["id"])
		assert.NotContains(t, user, "password")
	})

	t.Run("Success - Login with email", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/login", map[string]string{
			"username": "ADMIN@pixelarts.test",
			"password": "password123",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Wrong password", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/login", map[string]string{
			"username": "admin",
			"password": "wrong-password",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		result := testutils.AssertError(t, resp, "INVALID_CREDENTIALS")
		assert.Equal(t, "Invalid credentials", result.Message)
	})

	t.Run("Error - Missing fields", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/login", map[string]string{}, "")
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("username"))
		assert.True(t, result.HasFieldError("password"))
	})

	t.Run("Error - Rate limited after five attempts", func(t *testing.T) {
		// three requests above already count against this IP
		var last int
		for i := 0; i < 3; i++ {
			resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/login", map[string]string{
				"username": "admin",
				"password": "wrong-password",
			}, "")
			require.NoError(t, err)
			last = resp.Code
		}
		assert.Equal(t, 429, last)
	})
}

func TestMeAndLogoutHandlers(t *testing.T) {
	env := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	t.Run("Error - Missing token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/auth/me", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "UNAUTHORIZED")
	})

	t.Run("Error - Garbage token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/auth/me", nil, "not-a-jwt")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "INVALID_TOKEN")
	})

	t.Run("Success - Me returns the caller", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/auth/me", nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		result := testutils.AssertSuccess(t, resp)
		user := result.Data["user"].(map[string]interface{})
		assert.Equal(t, "admin", user["username"])
	})

	t.Run("Success - Logout revokes the token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/auth/logout", nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/auth/me", nil, token)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "TOKEN_REVOKED")
	})

	t.Run("Error - Google login disabled without credentials", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/auth/google/login", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}
