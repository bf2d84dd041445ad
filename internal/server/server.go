// Package server is the composition root: it opens the store, builds the
// provider clients, services and handlers, and mounts them on a chi router.
//
// Provider integrations are optional. When LINE, Gemini or object storage is
// not configured, the server still starts, logs a warning, and leaves the
// dependent routes unmounted.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/character-studio/internal/ai"
	"github.com/sakif/character-studio/internal/auth"
	"github.com/sakif/character-studio/internal/config"
	"github.com/sakif/character-studio/internal/handler"
	"github.com/sakif/character-studio/internal/middleware"
	"github.com/sakif/character-studio/internal/repository"
	"github.com/sakif/character-studio/internal/repository/postgres"
	"github.com/sakif/character-studio/internal/repository/sqlite"
	"github.com/sakif/character-studio/internal/service"
	"github.com/sakif/character-studio/internal/storage"
)

// database is what the server needs from either store besides the repositories.
type database interface {
	Ping(ctx context.Context) error
	Close() error
}

type Server struct {
	router chi.Router
	cfg    *config.Config
	logger *slog.Logger
	db     database
}

// Option overrides a provider client. Tests use these to avoid the network.
type Option func(*options)

type options struct {
	textGen  ai.Generator
	imageGen ai.Generator
	uploader storage.Uploader
	line     *auth.LineClient
}

func WithTextGenerator(g ai.Generator) Option  { return func(o *options) { o.textGen = g } }
func WithImageGenerator(g ai.Generator) Option { return func(o *options) { o.imageGen = g } }
func WithUploader(u storage.Uploader) Option   { return func(o *options) { o.uploader = u } }
func WithLineClient(c *auth.LineClient) Option { return func(o *options) { o.line = c } }

// New wires every dependency. The returned Server owns the store; Start
// closes it on shutdown, and Close does so for callers that never Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	db, users, characters, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("server: token service: %w", err)
	}

	line := o.line
	if line == nil {
		line = newLineClient(cfg.Line, logger)
	}

	extractor, images := newAIClients(ctx, cfg.Gemini, o, logger)

	uploader := o.uploader
	if uploader == nil {
		uploader = newUploader(ctx, cfg.Storage, logger)
	}

	// A typed nil must not reach the services as a non-nil interface.
	var lineProvider service.LineProvider
	if line != nil {
		lineProvider = line
	}
	var extractorDep service.ProfileExtractor
	var imagesDep service.ImageGenerator
	if extractor != nil && images != nil {
		extractorDep, imagesDep = extractor, images
	}

	authService := service.NewAuthService(users, tokens, auth.NewPasswordService(), lineProvider, logger)
	userService := service.NewUserService(users, logger)
	characterService := service.NewCharacterService(characters, extractorDep, imagesDep, uploader, logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.routes(
		handler.NewAuthHandler(authService, line, logger),
		handler.NewUserHandler(userService, logger),
		handler.NewCharacterHandler(characterService, logger),
		auth.RequireAuth(tokens, users, logger),
		line != nil,
		characterService.CanGenerateImages(),
	)
	return s, nil
}

func (s *Server) routes(
	authH *handler.AuthHandler,
	userH *handler.UserHandler,
	charH *handler.CharacterHandler,
	requireAuth func(http.Handler) http.Handler,
	lineEnabled, imagesEnabled bool,
) {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handler.Health(s.db, s.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register())
			r.Post("/login", authH.Login())
			if lineEnabled {
				r.Get("/line/login", authH.LineLogin())
				r.Get("/line/callback", authH.LineCallback)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/user/profile", userH.Profile())
			r.Post("/user/nickname", userH.UpdateNickname())

			r.Post("/character", charH.Create())
			if imagesEnabled {
				r.Post("/character/generate-image", charH.GenerateImage())
			}
		})
	})
}

// allowedOrigins falls back to "*" outside production.
func (s *Server) allowedOrigins() []string {
	if len(s.cfg.AllowedOrigins) > 0 {
		return s.cfg.AllowedOrigins
	}
	if s.cfg.IsProduction() {
		s.logger.Warn("ALLOWED_ORIGINS not set in production; cross-origin requests will be rejected")
		return nil
	}
	return []string{"*"}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Image generation routinely takes tens of seconds.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// openStore picks Postgres when DATABASE_URL is set, SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database, repository.UserRepository, repository.CharacterRepository, error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, postgres.Config{ConnectionString: cfg.DatabaseURL, MaxConns: 10})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("server: opening postgres: %w", err)
		}
		logger.Info("using postgres store")
		return db, db.Users(), db.Characters(), nil
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("server: creating database directory: %w", err)
		}
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("server: opening sqlite: %w", err)
	}
	logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
	return db, db.Users(), db.Characters(), nil
}

func newLineClient(cfg config.LineConfig, logger *slog.Logger) *auth.LineClient {
	if !cfg.Enabled() {
		logger.Warn("LINE login not configured; /v1/auth/line routes disabled")
		return nil
	}
	c, err := auth.NewLineClient(auth.LineConfig{
		ClientID:            cfg.ClientID,
		ClientSecret:        cfg.ClientSecret,
		CallbackURL:         cfg.CallbackURL,
		FrontendRedirectURL: cfg.FrontendRedirectURL,
	})
	if err != nil {
		logger.Warn("LINE login disabled", slog.String("error", err.Error()))
		return nil
	}
	return c
}

func newAIClients(ctx context.Context, cfg config.GeminiConfig, o *options, logger *slog.Logger) (*ai.TextClient, *ai.ImageClient) {
	textGen, imageGen := o.textGen, o.imageGen

	if textGen == nil || imageGen == nil {
		if !cfg.Enabled() {
			logger.Warn("Gemini not configured; image generation disabled")
			return nil, nil
		}
		var err error
		if textGen == nil {
			if textGen, err = ai.NewGeminiGenerator(ctx, cfg.ChatAPIKey); err != nil {
				logger.Warn("image generation disabled", slog.String("error", err.Error()))
				return nil, nil
			}
		}
		if imageGen == nil {
			if imageGen, err = ai.NewGeminiGenerator(ctx, cfg.ImageAPIKey); err != nil {
				logger.Warn("image generation disabled", slog.String("error", err.Error()))
				return nil, nil
			}
		}
	}

	return ai.NewTextClient(textGen, cfg.ChatModel), ai.NewImageClient(imageGen, cfg.ImageModel)
}

func newUploader(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) storage.Uploader {
	var (
		up  storage.Uploader
		err error
	)
	switch cfg.Provider {
	case config.StorageCloudinary:
		up, err = storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		})
	default:
		up, err = storage.NewR2Storage(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicDomain:    cfg.R2PublicURL,
		}, storage.WithUploadTimeout(time.Minute))
	}
	if err != nil {
		logger.Warn("object storage not configured; image generation disabled",
			slog.String("provider", cfg.Provider),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return up
}
