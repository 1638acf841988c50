package user

import (
	"errors"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var body CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	u, err := h.svc.Create(c.UserContext(), body)
	if err != nil {
		return writeError(c, err, "Failed to create user")
	}

	return response.Created(c, fiber.Map{"user": u}, "User created successfully")
}

func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.svc.List(c.UserContext())
	if err != nil {
		return response.ServerError(c, "Failed to fetch users", err)
	}
	return response.Success(c, fiber.Map{"users": users}, "Users retrieved successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	u, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err, "Failed to fetch user")
	}
	return response.Success(c, fiber.Map{"user": u}, "User retrieved successfully")
}

func (h *Handler) Update(c *fiber.Ctx) error {
	var body UpdateInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	u, err := h.svc.Update(c.UserContext(), auth.CurrentUser(c), c.Params("id"), body)
	if err != nil {
		return writeError(c, err, "Failed to update user")
	}

	return response.Success(c, fiber.Map{"user": u}, "User updated successfully")
}

func writeError(c *fiber.Ctx, err error, message string) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationError(c, verr.Fields)
	case errors.Is(err, ErrSelfDeactivate):
		return response.BadRequest(c, "You cannot deactivate your own account")
	case errors.Is(err, ErrSelfDemote):
		return response.BadRequest(c, "You cannot remove your own admin role")
	case errors.Is(err, repository.ErrNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, repository.ErrDuplicate):
		return response.Conflict(c, "User with this username or email already exists")
	default:
		return response.ServerError(c, message, err)
	}
}
