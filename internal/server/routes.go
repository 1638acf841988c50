package server

import (
	"time"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/media"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/Kyz7/pixelarts/internal/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type handlers struct {
	authSvc *auth.Service
	auth    *auth.Handler
	google  *auth.GoogleProvider
	users   *user.Handler
	media   *media.Handler
}

func SetupRoutes(api fiber.Router, h handlers) {
	protected := h.authSvc.JWTProtected()
	adminOnly := auth.RoleProtected(models.RoleAdmin)

	// ==========================================
	// AUTH
	// ==========================================
	authGroup := api.Group("/auth")
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.TooManyRequests(c, "Too many login attempts, please try again later")
		},
	}), h.auth.Login)
	authGroup.Get("/me", protected, h.auth.Me)
	authGroup.Post("/logout", protected, h.auth.Logout)
	authGroup.Get("/google/login", h.google.Login)
	authGroup.Get("/google/callback", h.google.Callback)

	// ==========================================
	// USER MANAGEMENT (Admin only)
	// ==========================================
	userGroup := api.Group("/users", protected, adminOnly)
	userGroup.Post("/", h.users.Create)
	userGroup.Get("/", h.users.List)
	userGroup.Get("/:id", h.users.Get)
	userGroup.Put("/:id", h.users.Update)

	// ==========================================
	// MEDIA
	// ==========================================
	mediaGroup := api.Group("/media")
	mediaGroup.Get("/", h.authSvc.OptionalJWT(), h.media.List)
	mediaGroup.Get("/stats/overview", protected, adminOnly, h.media.Stats)
	mediaGroup.Patch("/reorder", protected, adminOnly, h.media.Reorder)
	mediaGroup.Post("/", protected, adminOnly, h.media.Create)
	mediaGroup.Get("/:id", h.authSvc.OptionalJWT(), h.media.Get)
	mediaGroup.Put("/:id", protected, adminOnly, h.media.Update)
	mediaGroup.Delete("/:id", protected, adminOnly, h.media.Delete)
	mediaGroup.Post("/:id/click", h.media.Click)
}
