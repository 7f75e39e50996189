package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowbaker/filerelay/internal/controllers"
	"github.com/flowbaker/filerelay/internal/middlewares"
	"github.com/flowbaker/filerelay/internal/views"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const MessageRateLimited = "Too many requests from this IP, please try again later."

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self'",
	"img-src 'self' data:",
	"connect-src 'self'",
	"font-src 'self'",
	"object-src 'none'",
	"base-uri 'self'",
	"form-action 'self'",
	"frame-ancestors 'none'",
}, "; ")

type HTTPServerDependencies struct {
	FileController *controllers.FileController

	BodyLimit       int64
	TrustProxy      bool
	RateLimitMax    int // zero disables rate limiting
	RateLimitWindow time.Duration
}

func NewHTTPServer(deps HTTPServerDependencies) (*fiber.App, error) {
	if deps.FileController == nil {
		return nil, fmt.Errorf("file controller is required")
	}

	engine, err := views.NewEngine()
	if err != nil {
		return nil, err
	}

	router := fiber.New(fiber.Config{
		AppName:      "filerelay",
		BodyLimit:    int(deps.BodyLimit),
		Views:        engine,
		ErrorHandler: errorHandler(deps.FileController),
		TrustProxy:   deps.TrustProxy,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Loopback: true,
			Private:  true,
		},
		ProxyHeader: fiber.HeaderXForwardedFor,
	})

	router.Use(recoverer.New())
	router.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))
	router.Use(middlewares.RequestLogger())

	router.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: contentSecurityPolicy,
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost},
		AllowHeaders: []string{fiber.HeaderContentType},
	}))

	if deps.RateLimitMax > 0 {
		router.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimitMax,
			Expiration: deps.RateLimitWindow,
			LimitReached: func(c fiber.Ctx) error {
				return deps.FileController.RenderPage(c, fiber.StatusTooManyRequests, views.Page{Error: MessageRateLimited})
			},
		}))
	}

	router.Get("/health", deps.FileController.Health)
	router.Get("/static*", static.New("", static.Config{
		FS: views.Assets(),
	}))

	router.Get("/", deps.FileController.Index)
	router.Post("/api/upload", deps.FileController.Upload)
	router.Get("/file/:fileId", deps.FileController.Download)

	router.Use(deps.FileController.NotFound)

	return router, nil
}

// errorHandler renders the index view for errors that escaped a handler.
func errorHandler(fileController *controllers.FileController) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := controllers.MessageServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code

			switch {
			case status == fiber.StatusRequestEntityTooLarge:
				message = controllers.MessageFileTooLarge
			case status == fiber.StatusNotFound:
				message = controllers.MessagePageNotFound
			case status < fiber.StatusInternalServerError:
				message = fiberErr.Message
			}
		}

		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("Application error")
		}

		if renderErr := fileController.RenderPage(c, status, views.Page{Error: message}); renderErr != nil {
			log.Error().Err(renderErr).Msg("Failed to render error page")
			return c.Status(status).SendString(message)
		}

		return nil
	}
}
