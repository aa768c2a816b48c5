// Package main is the entry point for the TaskHub API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/server"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/migrations"
)

// Build metadata, set through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// init loads environment variables from a .env file if present.
func init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath  string
		showVersion bool
		migrateOnly bool
		seedOnly    bool
	)

	flag.StringVar(&configPath, "config", "./configs/config.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&migrateOnly, "migrate", false, "Run database migrations and exit")
	flag.BoolVar(&seedOnly, "seed", false, "Run migrations and seeds, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("TaskHub API Server\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)
	utils.InitValidator()

	if migrateOnly || seedOnly {
		if err := runDatabaseTasks(cfg, seedOnly); err != nil {
			log.Fatal().Err(err).Msg("Database task failed")
		}
		return
	}

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting TaskHub API Server")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Start blocks until SIGINT or SIGTERM and runs the maintenance loop.
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

// runDatabaseTasks migrates, and with seed also seeds, the configured
// database without starting the HTTP server.
func runDatabaseTasks(cfg *config.AppConfig, seed bool) error {
	if cfg.Database.Driver == constants.DriverMemory {
		return fmt.Errorf("nothing to migrate for the %s driver", constants.DriverMemory)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if seed {
		return server.Bootstrap(ctx, cfg, db)
	}

	migrator := migrations.NewMigrator(db)
	pending, err := migrator.Pending(ctx)
	if err != nil {
		return err
	}
	log.Info().Strs("pending", pending).Msg("Checked migration status")

	n, err := migrator.RunMigrations(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("migrations_run", n).Msg("Migrations applied")
	return nil
}
