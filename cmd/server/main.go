package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/api"
	"github.com/ifc-analysis/backend/internal/chat"
	"github.com/ifc-analysis/backend/internal/config"
	"github.com/ifc-analysis/backend/internal/ingest"
	"github.com/ifc-analysis/backend/internal/session"
	"github.com/ifc-analysis/backend/internal/spreadsheet"
	"github.com/ifc-analysis/backend/internal/validation"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := os.Getenv("IFC_ANALYSIS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.Storage.TempDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.TempDir).Msg("creating temp directory")
	}

	// Session registry with periodic expiry sweep.
	sessions := session.NewStore(cfg.SessionTTL())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.StartSweeper(ctx, cfg.SweepInterval())

	// Bounded ingestion pool over the model parsing collaborator.
	jobs := ingest.NewManager(sessions, ingest.IndexFileParser{}, cfg.Processing.Workers, cfg.Processing.QueueSize)
	defer jobs.Close()

	validator := validation.NewService(sessions, spreadsheet.CSVReader{}, cfg.Storage.TempDir)

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions:  sessions,
		Jobs:      jobs,
		Validator: validator,
		Chat:      chat.Disabled{},
		TempDir:   cfg.Storage.TempDir,
		MaxUpload: cfg.MaxUploadBytes(),
		Version:   Version,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Polling endpoints are too chatty to log.
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasPrefix(path, "/api/job/")
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("addr", cfg.Addr()).
		Str("temp_dir", cfg.Storage.TempDir).
		Int("workers", cfg.Processing.Workers).
		Msg("IFC analysis server starting")

	if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
