package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowbaker/filerelay/internal/config"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Start the relay HTTP server. It runs until SIGINT or SIGTERM and then drains open requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); !debug {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		zerolog.SetGlobalLevel(level)
	}

	app, err := buildHTTPServer(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("address", cfg.HTTPAddress).
		Str("public_base_url", cfg.PublicBaseURL).
		Msg("Starting file relay")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info().Msg("File relay stopped")
	return nil
}
