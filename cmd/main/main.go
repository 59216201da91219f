package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/matt-steen/todo-notes/pkg/config"
	"github.com/matt-steen/todo-notes/pkg/controller"
	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/matt-steen/todo-notes/pkg/engine"
	"github.com/matt-steen/todo-notes/pkg/export"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}

	defer logFile.Close()

	zerolog.SetGlobalLevel(cfg.Level())

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05",
	})

	log.Info().Str("config", cfg.ConfigFile).Str("driver", cfg.Driver).Msg("starting application...")

	if cfg.Driver != db.DriverPostgres && !strings.HasPrefix(cfg.Database, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
			return fmt.Errorf("error creating database directory: %w", err)
		}
	}

	// exports are one-shot, so there is nothing to watch
	watch := cfg.Watch && cfg.Export.File == ""

	database, err := db.NewDatabase(ctx, cfg.Database, db.WithDriver(cfg.Driver), db.WithWatch(watch))
	if err != nil {
		log.Err(err).Msg("error opening database")

		return err
	}

	defer database.Close()

	if cfg.Export.File != "" {
		count, err := export.Run(ctx, database, cfg.Export)
		if err != nil {
			log.Err(err).Msg("error exporting notes")

			return err
		}

		fmt.Printf("exported %d note(s) to %s\n", count, cfg.Export.File)

		return nil
	}

	return runUI(ctx, database)
}

func runUI(ctx context.Context, database *db.Database) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := engine.New(database)
	defer e.Close()

	go func() {
		if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Err(err).Msg("note stream stopped")
		}
	}()

	ui, err := controller.NewController(ctx, e)
	if err != nil {
		return err
	}

	if err := ui.Go(); err != nil {
		log.Err(err).Msg("ui stopped")

		return err
	}

	log.Info().Msg("terminating application")

	return nil
}

func openLog(filename string) (*os.File, error) {
	filePerms := 0o666

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(filePerms))
	if err != nil {
		return nil, fmt.Errorf("error opening log file %s: %w", filename, err)
	}

	return logFile, nil
}
