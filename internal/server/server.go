package server

import (
	"context"
	"time"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/media"
	"github.com/Kyz7/pixelarts/internal/middleware"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/Kyz7/pixelarts/internal/user"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

type Options struct {
	Config   *config.Config
	Store    *repository.Store
	Storage  storage.Provider
	Registry *prometheus.Registry
}

// Server is the assembled HTTP app plus the services cmd/server needs for
// background work.
type Server struct {
	App   *fiber.App
	Auth  *auth.Service
	Users *user.Service
}

func New(opts Options) (*Server, error) {
	cfg := opts.Config

	app := fiber.New(fiber.Config{
		AppName:      "Pixel Arts API",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: response.ErrorHandler,
	})

	prom, err := middleware.NewPrometheusMiddleware(opts.Registry)
	if err != nil {
		return nil, err
	}
	mediaMetrics, err := media.NewMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger.L()))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))
	app.Use(prom.Handler())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/health"
	})))

	app.Get("/health", healthHandler(opts.Store.Health, opts.Storage.Name()))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	if local, ok := opts.Storage.(*storage.LocalStorage); ok {
		app.Static(storage.LocalURLPrefix, local.Root(), fiber.Static{
			Compress:  true,
			ByteRange: true,
			Browse:    false,
			MaxAge:    3600,
		})
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	authSvc := auth.NewService(opts.Store.Users, opts.Store.Tokens, issuer)
	userSvc := user.NewService(opts.Store.Users)
	mediaSvc := media.NewService(opts.Store.Media, opts.Store.Users, opts.Storage, mediaMetrics, cfg.Storage.CloudinaryFolder)

	SetupRoutes(app.Group(cfg.APIPrefix), handlers{
		authSvc: authSvc,
		auth:    auth.NewHandler(authSvc),
		google:  auth.NewGoogleProvider(cfg, opts.Store.Users, authSvc),
		users:   user.NewHandler(userSvc),
		media:   media.NewHandler(mediaSvc),
	})

	return &Server{App: app, Auth: authSvc, Users: userSvc}, nil
}

func healthHandler(store repository.Pinger, storageName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.L().Warnw("health check failed", "error", err)
			return response.Error(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable")
		}

		return response.Success(c, fiber.Map{
			"status":  "ok",
			"storage": storageName,
			"time":    time.Now().UTC(),
		}, "Pixel Arts API is running")
	}
}
