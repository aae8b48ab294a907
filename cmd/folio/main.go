// Command folio runs a folio site configured entirely from environment
// variables. It ships plain fallback views so the server is usable out of
// the box; a real site passes its own templ components to folio.New.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/folio"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	adminPassword, err := folio.MustEnv("ADMIN_PASSWORD")
	if err != nil {
		log.Fatal(err)
	}
	sessionSecret, err := folio.MustEnv("SESSION_SECRET")
	if err != nil {
		log.Fatal(err)
	}
	tokenSecret, err := folio.MustEnv("TOKEN_SECRET")
	if err != nil {
		log.Fatal(err)
	}

	cfg := folio.SiteConfig{
		Name:        folio.EnvOr("SITE_NAME", "Folio"),
		URL:         folio.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: os.Getenv("SITE_DESCRIPTION"),
		Author:      os.Getenv("SITE_AUTHOR"),

		Addr:         folio.EnvOr("ADDR", ":3000"),
		DatabasePath: folio.EnvOr("DATABASE_PATH", "data/folio.db"),

		AdminPassword: adminPassword,
		SessionSecret: sessionSecret,
		TokenSecret:   tokenSecret,
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",

		AssetEndpoint:  os.Getenv("ASSET_ENDPOINT"),
		AssetBucket:    os.Getenv("ASSET_BUCKET"),
		AssetAccessKey: os.Getenv("ASSET_ACCESS_KEY"),
		AssetSecretKey: os.Getenv("ASSET_SECRET_KEY"),
		AssetPublicURL: os.Getenv("ASSET_PUBLIC_URL"),

		LogLevel: folio.EnvOr("LOG_LEVEL", "info"),
	}
	if ttl := os.Getenv("TOKEN_TTL_MINUTES"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
			cfg.TokenTTL = time.Duration(n) * time.Minute
		}
	}

	app := folio.New(cfg, defaultViews(cfg), folio.WithStaticDir(folio.EnvOr("STATIC_DIR", "public")))

	go func() {
		if err := app.Start(); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
