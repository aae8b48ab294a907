// Package folio is the publishing core of a personal portfolio site with
// an attached single-author blog, built with Go, Echo, and templ. It
// provides the post store, the draft/published workflow, the admin
// credential gate, cover image uploads, RSS, and sitemap out of the box.
//
// Users provide their own templ templates via the ViewFuncs struct, and
// folio handles handler logic, middleware, and persistence.
package folio

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home           func(posts []Post, siteURL string) templ.Component
	Post           func(post Post, siteURL string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []Post, message string, csrfToken string) templ.Component
	AdminForm      func(post Post, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central folio application. It wires together the store,
// cache, asset backend, credential gate, handlers, middleware, and
// user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Assets AssetStore
	Gate   *Gate
	Log    zerolog.Logger
	Views  ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the gate, asset backend, store, cache, middleware,
// and routes, then starts the server. It returns once the server stops.
func (a *App) Start() error {
	a.Log = NewLogger(a.Config.LogLevel)

	gate, err := NewGate(a.Config.AdminPassword, a.Config.TokenSecret, a.Config.TokenTTL)
	if err != nil {
		return fmt.Errorf("folio: init gate: %w", err)
	}
	a.Gate = gate
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: init sessions: %w", ErrNoSecret)
	}

	if a.Assets == nil && a.Config.AssetBucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		assets, err := NewS3AssetStore(ctx, a.Config)
		cancel()
		if err != nil {
			return err
		}
		a.Assets = assets
	}
	if a.Assets == nil {
		a.Log.Warn().Msg("no asset backend configured, cover image uploads disabled")
	}

	store, err := NewStore(a.Config.DatabasePath, a.Assets)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	store.SetLogger(a.Log)
	a.Store = store

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.Log.Info().Str("addr", a.Config.Addr).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets (portfolio images, favicon, robots).
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)

	// Public JSON API
	e.GET("/api/posts", a.handleAPIListPublished)
	e.GET("/api/posts/:slug", a.handleAPIGetPost)
	e.POST("/api/login", a.handleAPILogin)

	// Admin HTML surface (session auth)
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/post/:id/", a.handleAdminPost)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/post/:id/", a.handleAdminDelete)
	e.POST("/admin/upload/", a.handleCoverUpload)

	// Admin JSON API (capability token or session)
	api := e.Group("/api/admin", a.requireAdmin)
	api.GET("/posts", a.handleAPIListAll)
	api.POST("/posts", a.handleAPICreatePost)
	api.PUT("/posts/:id", a.handleAPIUpdatePost)
	api.DELETE("/posts/:id", a.handleAPIDeletePost)
}

// Shutdown stops the HTTP server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Echo.Shutdown(ctx); err != nil {
		return err
	}
	return a.Close()
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or an error
// naming the missing variable. Missing required configuration is a hard
// startup failure, never a silent default.
func MustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("folio: required environment variable %s is not set", key)
	}
	return v, nil
}
