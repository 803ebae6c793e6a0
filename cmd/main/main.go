package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"storefront/catalog/internal/config"
	"storefront/catalog/internal/container"
	"storefront/catalog/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "catalog",
	Short:         "Storefront catalog filtering service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront and admin API",
	Long:  `Loads the product projection, follows the change streams and serves the HTTP API until interrupted.`,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the attribute, term and product tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	log.SetLevel(level)
	if cfg.Log.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	}

	log.Info("Configuration loaded successfully")
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Info("Starting storefront catalog service...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("application exited with error: %w", err)
	}

	log.Info("Application finished successfully")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := container.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.Migrate(ctx, db)
}
