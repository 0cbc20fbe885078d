// Command pressroom runs a headless pressroom server configured entirely
// from environment variables (optionally loaded from a .env file).
package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okandemir/pressroom"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := pressroom.SiteConfig{
		Name:        pressroom.EnvOr("SITE_NAME", "Pressroom"),
		URL:         pressroom.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: os.Getenv("SITE_DESCRIPTION"),

		Addr:                pressroom.EnvOr("ADDR", ":3000"),
		DatabasePath:        pressroom.EnvOr("DATABASE_PATH", "data/pressroom.db"),
		TrafficDatabasePath: pressroom.EnvOr("TRAFFIC_DATABASE_PATH", "data/traffic.db"),

		SessionSecret: pressroom.MustEnv("SESSION_SECRET"),
		SessionTTL:    envDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",

		MediaBaseURL: pressroom.MustEnv("MEDIA_BASE_URL"),
		MediaAPIKey:  os.Getenv("MEDIA_API_KEY"),
		MediaFolder:  pressroom.EnvOr("MEDIA_FOLDER", "thumbnails"),

		TrafficRetentionDays: envInt("TRAFFIC_RETENTION_DAYS", 365),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
	}

	app := pressroom.New(cfg, pressroom.ViewFuncs{})
	defer app.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		app.Close()
		os.Exit(0)
	}()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}
