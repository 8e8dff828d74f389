/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing allocation server: configuration,
  store, admission engine, HTTP router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, optional YAML file, STAFFING_* env vars)
  2. Open the SQLite store
  3. Build the admission engine with the configured rules
  4. Configure the HTTP router
  5. Serve until SIGINT/SIGTERM, then drain with a 30s timeout

CONFIGURATION:
  -config path to a YAML config file (optional). Environment overrides:
  STAFFING_SERVER_PORT, STAFFING_DATABASE_PATH,
  STAFFING_ALLOCATION_MIN_START_DATE, STAFFING_LOGGER_LEVEL.

SEE ALSO:
  - config/config.go: configuration schema and defaults
  - api/server.go: router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/api"
	"github.com/warp/staffing-engine/config"
	"github.com/warp/staffing-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logger)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer store.Close()

	engine := allocation.NewEngine(store, cfg.Rules(), log.With().Str("component", "engine").Logger())
	handler := api.NewHandler(engine, store, store, log.With().Str("component", "api").Logger())
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("db", cfg.Database.Path).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LoggerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
