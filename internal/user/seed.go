package user

import (
	"context"
	"fmt"

	"github.com/Kyz7/pixelarts/internal/models"
)

// SeedDefaultAdmin creates the first admin when the user store is empty and
// credentials are configured. It reports whether an account was created.
func (s *Service) SeedDefaultAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.Create(ctx, CreateInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("failed to seed admin: %w", err)
	}
	return true, nil
}
