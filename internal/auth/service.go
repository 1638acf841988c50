package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserInactive       = errors.New("user not found or inactive")
)

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *models.User `json:"user"`
}

type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	issuer *TokenIssuer
}

func NewService(users repository.UserRepository, tokens repository.TokenRepository, issuer *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, issuer: issuer}
}

// Login accepts a username or an email address as identifier.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	u, err := s.users.FindByUsername(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) && strings.Contains(identifier, "@") {
		u, err = s.users.FindByEmail(ctx, strings.ToLower(identifier))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !u.IsActive || u.Password == "" || !CheckPasswordHash(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.IssueFor(ctx, u)
}

// IssueFor signs a token for an already authenticated user and records the login.
func (s *Service) IssueFor(ctx context.Context, u *models.User) (*LoginResult, error) {
	token, _, err := s.issuer.Generate(u)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		logger.L().Warnw("failed to record last login", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.issuer.TTL().Seconds()),
		User:      u,
	}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, tokenStr string) (*models.User, *Claims, error) {
	claims, err := s.issuer.Parse(tokenStr)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrUserInactive
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, nil, ErrUserInactive
	}

	return u, claims, nil
}

func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	expiresAt := time.Now().Add(s.issuer.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.tokens.Revoke(ctx, claims.ID, claims.Subject, expiresAt)
}

func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, time.Now())
}
