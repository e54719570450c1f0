// sqadmin/main.go
package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sqadmin/backend"
	"sqadmin/cache"
	"sqadmin/config"
	"sqadmin/database"
	"sqadmin/handlers"
	"sqadmin/models"
	"sqadmin/session"
)

type Application struct {
	backend     *backend.Client
	sessions    *session.Manager
	cookies     *session.CookieCodec
	cache       *cache.Store
	rateLimiter *models.RateLimiter
	logger      *slog.Logger
	config      *config.Config
}

// Methods to satisfy the handlers.App interface
func (a *Application) Backend() *backend.Client          { return a.backend }
func (a *Application) Sessions() *session.Manager        { return a.sessions }
func (a *Application) Cookies() *session.CookieCodec     { return a.cookies }
func (a *Application) Cache() *cache.Store               { return a.cache }
func (a *Application) RateLimiter() *models.RateLimiter  { return a.rateLimiter }
func (a *Application) Logger() *slog.Logger              { return a.logger }
func (a *Application) Config() *config.Config            { return a.config }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Error("Failed to generate session secret", "error", err)
			os.Exit(1)
		}
		logger.Warn("No session secret configured, generated a random one; sessions will not survive a restart")
	}

	dbService, err := database.InitDB(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err := handlers.LoadTemplates(); err != nil {
		logger.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(dbService, cfg.SessionTTL, logger)
	client := backend.NewClient(cfg.UpstreamURL, sessions, logger)
	sessions.SetClient(client)

	if err := sessions.Hydrate(); err != nil {
		logger.Error("Failed to hydrate session store", "error", err)
		os.Exit(1)
	}

	app := &Application{
		backend:     client,
		sessions:    sessions,
		cookies:     session.NewCookieCodec(secret, cfg.SessionTTL),
		cache:       cache.New(cfg.CacheTTL),
		rateLimiter: models.NewRateLimiter(cfg.LoginRateEvery, cfg.LoginRateBurst, cfg.LoginRatePrune, cfg.LoginRateExpire),
		logger:      logger,
		config:      cfg,
	}

	server := &http.Server{Addr: cfg.Listen, Handler: handlers.NewRouter(app)}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("sqadmin started",
		"version", config.AppVersion,
		"address", cfg.Listen,
		"upstream", cfg.UpstreamURL,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
