package cli

import (
	"net/http"
	"time"

	"github.com/flowbaker/filerelay/internal/config"
	"github.com/flowbaker/filerelay/internal/controllers"
	"github.com/flowbaker/filerelay/internal/managers"
	"github.com/flowbaker/filerelay/internal/relay"
	"github.com/flowbaker/filerelay/internal/server"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// Upstream responses must start within this window. Bodies have no deadline so
// large downloads can stream for as long as the client keeps reading.
const telegramResponseHeaderTimeout = 60 * time.Second

// buildHTTPServer wires the document store, the relay services and the HTTP layer.
func buildHTTPServer(cfg *config.Config) (*fiber.App, error) {
	log.Info().Msg("Building relay dependencies")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = telegramResponseHeaderTimeout

	documentStore, err := managers.NewDocumentStorageManager(managers.DocumentStorageManagerDependencies{
		BotToken:     cfg.TelegramToken,
		ChatID:       cfg.TelegramChatID,
		APIEndpoint:  cfg.TelegramAPIEndpoint,
		FileEndpoint: cfg.TelegramFileEndpoint,
		HTTPClient:   &http.Client{Transport: transport},
	})
	if err != nil {
		return nil, err
	}

	uploadService := relay.NewUploadService(relay.UploadServiceDependencies{
		Store:          documentStore,
		MaxConcurrency: cfg.UploadConcurrency,
	})

	downloadService := relay.NewDownloadService(relay.DownloadServiceDependencies{
		Store: documentStore,
	})

	fileController := controllers.NewFileController(controllers.FileControllerDependencies{
		UploadService:   uploadService,
		DownloadService: downloadService,
		PublicBaseURL:   cfg.PublicBaseURL,
		MaxFileSize:     cfg.MaxFileSize,
	})

	return server.NewHTTPServer(server.HTTPServerDependencies{
		FileController:  fileController,
		BodyLimit:       cfg.MaxBodySize,
		TrustProxy:      cfg.TrustProxy,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})
}
