// Command server runs the character studio API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the keys. Only JWT_SECRET is required: without LINE,
// Gemini or storage credentials the matching routes are simply not mounted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/character-studio/internal/config"
	"github.com/sakif/character-studio/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
