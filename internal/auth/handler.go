package auth

import (
	"errors"
	"strings"

	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	identifier := strings.TrimSpace(body.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(body.Email)
	}

	var errs []response.FieldError
	if identifier == "" {
		errs = append(errs, response.FieldError{Field: "username", Message: "Username is required"})
	}
	if body.Password == "" {
		errs = append(errs, response.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	result, err := h.svc.Login(c.UserContext(), identifier, body.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return response.Unauthorized(c, "INVALID_CREDENTIALS", "Invalid credentials")
	}
	if err != nil {
		return response.ServerError(c, "Login failed", err)
	}

	return response.Success(c, result, "Login successful")
}

func (h *Handler) Me(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{"user": CurrentUser(c)}, "User retrieved successfully")
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	claims := CurrentClaims(c)
	if claims == nil {
		return response.Unauthorized(c, response.CodeUnauthorized, "User not authenticated")
	}

	if err := h.svc.Logout(c.UserContext(), claims); err != nil {
		return response.ServerError(c, "Logout failed", err)
	}

	return response.Success(c, nil, "Logged out successfully")
}
