package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
)

const minPasswordLength = 8

var (
	ErrSelfDeactivate = errors.New("admins cannot deactivate their own account")
	ErrSelfDemote     = errors.New("admins cannot remove their own admin role")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
)

type ValidationError struct {
	Fields []response.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

type CreateInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateInput is a partial update; nil fields are left alone. An empty email
// clears it.
type UpdateInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

type Service struct {
	users repository.UserRepository
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	var errs []response.FieldError

	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		errs = append(errs, response.FieldError{Field: "username", Message: "Username must be 3-50 letters, digits, dots, dashes or underscores"})
	}

	email, emailErr := normalizeEmail(in.Email)
	if emailErr != nil {
		errs = append(errs, *emailErr)
	}

	if len(in.Password) < minPasswordLength {
		errs = append(errs, response.FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)})
	}

	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = models.RoleEditor
	}
	if !models.ValidRole(role) {
		errs = append(errs, response.FieldError{Field: "role", Message: "Role must be admin or editor"})
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: true,
		Provider: models.ProviderLocal,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.L().Infow("user created", "id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// Update applies in to the user id on behalf of actor.
func (s *Service) Update(ctx context.Context, actor *models.User, id string, in UpdateInput) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	self := actor != nil && actor.ID == u.ID
	if self && in.IsActive != nil && !*in.IsActive {
		return nil, ErrSelfDeactivate
	}

	var errs []response.FieldError

	if in.Email != nil {
		email, emailErr := normalizeEmail(*in.Email)
		if emailErr != nil {
			errs = append(errs, *emailErr)
		} else {
			u.Email = email
		}
	}

	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			errs = append(errs, response.FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)})
		} else {
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
			u.Password = hash
		}
	}

	if in.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*in.Role))
		switch {
		case !models.ValidRole(role):
			errs = append(errs, response.FieldError{Field: "role", Message: "Role must be admin or editor"})
		case self && role != models.RoleAdmin:
			return nil, ErrSelfDemote
		default:
			u.Role = role
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(raw string) (*string, *response.FieldError) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, &response.FieldError{Field: "email", Message: "Email must be a valid address"}
	}
	return &email, nil
}
