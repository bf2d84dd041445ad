// Package config loads the server configuration from the environment.
//
// A .env file in the working directory is read first if present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLength = 16

type Config struct {
	Port           int      `env:"PORT"            envDefault:"8080"`
	Env            string   `env:"ENV"             envDefault:"development"`
	LogLevel       string   `env:"LOG_LEVEL"       envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT"      envDefault:"text"`
	DBPath         string   `env:"DB_PATH"         envDefault:"data/app.db"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`

	Line    LineConfig
	Gemini  GeminiConfig
	Storage StorageConfig
}

type LineConfig struct {
	ClientID            string `env:"LINE_CLIENT_ID"`
	ClientSecret        string `env:"LINE_CLIENT_SECRET"`
	CallbackURL         string `env:"LINE_CALLBACK_URL"`
	FrontendRedirectURL string `env:"LINE_FE_REDIRECT_URL"`
}

// Enabled reports whether every LINE setting is present.
func (c LineConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.CallbackURL != "" && c.FrontendRedirectURL != ""
}

// GeminiConfig holds one key per model. The text and image steps are
// billed separately, so they may use different keys.
type GeminiConfig struct {
	ChatAPIKey  string `env:"CHAT_GEMINI_API_KEY"`
	ImageAPIKey string `env:"IMAGE_GEMINI_API_KEY"`
	ChatModel   string `env:"CHAT_GEMINI_MODEL"  envDefault:"gemini-2.5-flash"`
	ImageModel  string `env:"IMAGE_GEMINI_MODEL" envDefault:"gemini-2.5-flash-image-preview"`
}

func (c GeminiConfig) Enabled() bool {
	return c.ChatAPIKey != "" && c.ImageAPIKey != ""
}

const (
	StorageR2         = "r2"
	StorageCloudinary = "cloudinary"
)

type StorageConfig struct {
	Provider string `env:"STORAGE_PROVIDER" envDefault:"r2"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

// Load reads .env (if any) and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only. Tests use it with t.Setenv.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.Storage.Provider {
	case StorageR2, StorageCloudinary:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_PROVIDER must be %q or %q, got %q", StorageR2, StorageCloudinary, c.Storage.Provider))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction is true for ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", s)
	}
	return level, nil
}
