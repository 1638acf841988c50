package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL          = 5 * time.Minute
)

// GoogleProvider signs in existing admin accounts whose email matches the
// Google profile. It never creates accounts.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	users       repository.UserRepository
	svc         *Service

	mu     sync.Mutex
	states map[string]time.Time
}

// NewGoogleProvider returns nil when Google credentials are not configured.
func NewGoogleProvider(cfg *config.Config, users repository.UserRepository, svc *Service) *GoogleProvider {
	if !cfg.GoogleEnabled() {
		return nil
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			RedirectURL:  cfg.GoogleRedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		users:       users,
		svc:         svc,
		states:      make(map[string]time.Time),
	}
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (g *GoogleProvider) storeState(state string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for k, expiry := range g.states {
		if now.After(expiry) {
			delete(g.states, k)
		}
	}
	g.states[state] = now.Add(stateTTL)
}

// consumeState reports whether state was issued and unexpired. A state is usable once.
func (g *GoogleProvider) consumeState(state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.states[state]
	if !exists {
		return false
	}
	delete(g.states, state)
	return time.Now().Before(expiry)
}

func (g *GoogleProvider) Login(c *fiber.Ctx) error {
	if g == nil {
		return response.NotFound(c, "Google login")
	}

	state, err := generateState()
	if err != nil {
		return response.ServerError(c, "Failed to start Google login", err)
	}
	g.storeState(state)

	return c.Redirect(g.oauth.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func (g *GoogleProvider) Callback(c *fiber.Ctx) error {
	if g == nil {
		return response.NotFound(c, "Google login")
	}

	if !g.consumeState(c.Query("state")) {
		return response.BadRequest(c, "Invalid state parameter")
	}

	code := c.Query("code")
	if code == "" {
		return response.BadRequest(c, "Missing authorization code")
	}

	ctx := c.UserContext()
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return response.ServerError(c, "Failed to exchange token", err)
	}

	email, err := g.fetchEmail(ctx, token)
	if err != nil {
		return response.ServerError(c, "Failed to get user info", err)
	}

	u, err := g.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.L().Warnw("google login rejected for unknown email", "email", email)
		return response.Forbidden(c, "No admin account is linked to this Google account")
	}
	if err != nil {
		return response.ServerError(c, "Google login failed", err)
	}
	if !u.IsActive {
		return response.Forbidden(c, "Account is disabled")
	}

	if u.Provider != models.ProviderGoogle && u.Password == "" {
		u.Provider = models.ProviderGoogle
		if err := g.users.Update(ctx, u); err != nil {
			logger.L().Warnw("failed to mark account as google-linked", "user_id", u.ID, "error", err)
		}
	}

	result, err := g.svc.IssueFor(ctx, u)
	if err != nil {
		return response.ServerError(c, "Google login failed", err)
	}

	return response.Success(c, result, "Login successful")
}

func (g *GoogleProvider) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := g.oauth.Client(ctx, token)
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.VerifiedEmail {
		return "", errors.New("google account has no verified email")
	}
	return strings.ToLower(info.Email), nil
}
