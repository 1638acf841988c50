package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func Success(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusCreated).JSON(StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *fiber.Ctx, statusCode int, code, message string) error {
	return c.Status(statusCode).JSON(StandardResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, code, message string) error {
	if code == "" {
		code = CodeUnauthorized
	}
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, CodeForbidden, message)
}

func NotFound(c *fiber.Ctx, resource string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, resource+" not found")
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, CodeConflict, message)
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, CodeTooManyRequests, message)
}

func ValidationError(c *fiber.Ctx, errs []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(StandardResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
		Code:    CodeValidation,
	})
}

// ServerError answers 500 with a generic message and the underlying error text.
func ServerError(c *fiber.Ctx, message string, err error) error {
	body := StandardResponse{
		Success: false,
		Message: message,
		Code:    CodeInternal,
	}
	if err != nil {
		body.Error = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

// ErrorHandler renders errors that escape handlers (routing misses, body
// limit, recovered panics) in the standard envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return Error(c, fe.Code, CodeNotFound, fe.Message)
		case fiber.StatusTooManyRequests:
			return TooManyRequests(c, fe.Message)
		case fiber.StatusRequestEntityTooLarge:
			return Error(c, fe.Code, CodeBadRequest, "File too large")
		}
		if fe.Code < fiber.StatusInternalServerError {
			return Error(c, fe.Code, CodeBadRequest, fe.Message)
		}
		return ServerError(c, "Server error", fe)
	}
	return ServerError(c, "Server error", err)
}

func CalculateMeta(page, limit int, total int64) Pagination {
	if limit < 1 {
		limit = 1
	}
	pages := total / int64(limit)
	if total%int64(limit) > 0 {
		pages++
	}

	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: int64(page) < pages,
		HasPrev: page > 1,
	}
}
