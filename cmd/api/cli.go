package main

import (
	"context"
	"errors"
	"fmt"
	"linkednotes/cmd/internal/app"
	"linkednotes/cmd/internal/config"
	"linkednotes/cmd/internal/domain/sqlite"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

// newCLIApp creates the CLI application. Running it without a command serves the API.
func newCLIApp() *cli.App {
	cliApp := &cli.App{
		Name:    "linkednotes",
		Usage:   "Notes API with tags, links and attachments",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address, overrides NOTES_ADDR"},
			&cli.StringFlag{Name: "db", Usage: "SQLite file, overrides NOTES_DB_FILE"},
			&cli.StringFlag{Name: "attach-dir", Usage: "Attachment directory, overrides ATTACH_DIR"},
		},
		Before: func(c *cli.Context) error {
			return loadEnv(c.Context)
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
		},
		Action: serve,
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP server (default)",
		Action: serve,
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema and exit",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, err := sqlite.Init(cfg.DBFile)
			if err != nil {
				return fmt.Errorf("failed to migrate %s: %w", cfg.DBFile, err)
			}
			log.Infof("schema of %s is up to date", cfg.DBFile)
			return sqlite.Close(db)
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init SQLite
	db, err := sqlite.Init(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := sqlite.Close(db); err != nil {
			log.Errorf("failed to close database: %v", err)
		}
	}()

	server, err := app.New(ctx, cfg, db, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Errorf("failed to release resources: %v", err)
		}
	}()
	server.StartJobs(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Addr)
		errCh <- server.Echo.Start(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Echo.Shutdown(shutdownCtx)
}

// loadConfig reads the environment, applies command line overrides and sets the log level.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("db"); v != "" {
		cfg.DBFile = v
	}
	if v := c.String("attach-dir"); v != "" {
		cfg.AttachDir = v
	}

	log.SetLevel(parseLogLevel(cfg.LogLevel))
	return cfg, nil
}

func parseLogLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
