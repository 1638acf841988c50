package auth

import (
	"errors"
	"strings"

	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID = "user_id"
	LocalUser   = "user"
	LocalClaims = "token_claims"
)

func (s *Service) JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, response.CodeUnauthorized, "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format")
		}

		u, claims, err := s.Authenticate(c.UserContext(), tokenParts[1])
		switch {
		case errors.Is(err, ErrInvalidToken):
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		case errors.Is(err, ErrTokenRevoked):
			return response.Unauthorized(c, "TOKEN_REVOKED", "Token has been revoked")
		case errors.Is(err, ErrUserInactive):
			return response.Unauthorized(c, response.CodeUnauthorized, "User not found or inactive")
		case err != nil:
			return response.ServerError(c, "Authentication failed", err)
		}

		setIdentity(c, u, claims)
		return c.Next()
	}
}

// OptionalJWT attaches the caller's identity when a valid token is present
// and lets anonymous requests through unchanged.
func (s *Service) OptionalJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || tokenStr == "" {
			return c.Next()
		}

		u, claims, err := s.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			logger.L().Debugw("ignoring unusable bearer token", "error", err)
			return c.Next()
		}

		setIdentity(c, u, claims)
		return c.Next()
	}
}

func RoleProtected(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return response.Unauthorized(c, response.CodeUnauthorized, "User not authenticated")
		}

		for _, role := range allowedRoles {
			if u.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

func setIdentity(c *fiber.Ctx, u *models.User, claims *Claims) {
	c.Locals(LocalUserID, u.ID)
	c.Locals(LocalUser, u)
	c.Locals(LocalClaims, claims)
}

func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(LocalUser).(*models.User)
	return u
}

func CurrentClaims(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(LocalClaims).(*Claims)
	return claims
}

func IsAdmin(c *fiber.Ctx) bool {
	u := CurrentUser(c)
	return u != nil && u.IsAdmin()
}
