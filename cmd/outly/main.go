package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/outly-dev/outly/db"
	"github.com/outly-dev/outly/internal/auth"
	"github.com/outly-dev/outly/internal/router"
	"github.com/outly-dev/outly/internal/ws"
	"github.com/outly-dev/outly/pkg/logging"
)

const tokenDuration = 7 * 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	logging.Setup()

	secret := os.Getenv("JWT_SECRET")

	if secret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	conn, err := db.Connect(dsn)

	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.Migrate(conn); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	jwtManager := auth.NewJWTManager(secret, tokenDuration)
	hub := ws.NewHub()

	r := router.New(conn, jwtManager, hub)

	port := os.Getenv("PORT")

	if port == "" {
		port = "3000"
		slog.Info("PORT not set, defaulting to 3000")
	}

	slog.Info("starting server", "port", port)

	if err := r.Run(":" + port); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
