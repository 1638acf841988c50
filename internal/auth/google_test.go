package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T, email string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"email":          email,
			"verified_email": true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func googleApp(t *testing.T, g *GoogleProvider) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Get("/google/login", g.Login)
	app.Get("/google/callback", g.Callback)
	return app
}

func TestNewGoogleProvider_DisabledWithoutCredentials(t *testing.T) {
	g := NewGoogleProvider(&config.Config{}, nil, nil)
	assert.Nil(t, g)

	resp, err := googleApp(t, g).Test(httptest.NewRequest("GET", "/google/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGoogleProvider_Flow(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store.Users, store.Tokens, NewTokenIssuer(testSecret, time.Hour))
	admin := createUser(t, store, "admin", "admin@pixelarts.studio", "password123", models.RoleAdmin, true)

	newProvider := func(email string) *GoogleProvider {
		srv := fakeGoogle(t, email)
		g := NewGoogleProvider(&config.Config{
			GoogleClientID:     "client",
			GoogleClientSecret: "secret",
			GoogleRedirectURL:  "http://localhost:5000/api/auth/google/callback",
		}, store.Users, svc)
		require.NotNil(t, g)
		g.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
		g.userInfoURL = srv.URL + "/userinfo"
		return g
	}

	startLogin := func(t *testing.T, app *fiber.App) string {
		resp, err := app.Test(httptest.NewRequest("GET", "/google/login", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)

		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := location.Query().Get("state")
		require.NotEmpty(t, state)
		return state
	}

	t.Run("Success - existing admin", func(t *testing.T) {
		app := googleApp(t, newProvider("ADMIN@pixelarts.studio"))
		state := startLogin(t, app)

		resp, err := app.Test(httptest.NewRequest("GET", "/google/callback?code=abc&state="+url.QueryEscape(state), nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Success bool        `json:"success"`
			Data    LoginResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.NotEmpty(t, body.Data.Token)
		assert.Equal(t, admin.ID, body.Data.User.ID)

		u, _, err := svc.Authenticate(context.Background(), body.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, u.ID)
	})

	t.Run("Error - state is single use", func(t *testing.T) {
		app := googleApp(t, newProvider("admin@pixelarts.studio"))
		state := startLogin(t, app)

		resp, err := app.Test(httptest.NewRequest("GET", "/google/callback?code=abc&state="+url.QueryEscape(state), nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest("GET", "/google/callback?code=abc&state="+url.QueryEscape(state), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Error - unknown email is forbidden", func(t *testing.T) {
		app := googleApp(t, newProvider("stranger@example.com"))
		state := startLogin(t, app)

		resp, err := app.Test(httptest.NewRequest("GET", "/google/callback?code=abc&state="+url.QueryEscape(state), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Error - forged state", func(t *testing.T) {
		app := googleApp(t, newProvider("admin@pixelarts.studio"))

		resp, err := app.Test(httptest.NewRequest("GET", "/google/callback?code=abc&state=forged", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestGoogleProvider_ExpiredState(t *testing.T) {
	g := &GoogleProvider{states: map[string]time.Time{}}
	g.states["old"] = time.Now().Add(-time.Second)
	g.storeState("fresh")

	assert.NotContains(t, g.states, "old")
	assert.True(t, g.consumeState("fresh"))
	assert.False(t, g.consumeState("fresh"))
}
