package folio

import "time"

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string // Site name (default "Folio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/folio.db")

	AdminPassword string        // Required: admin login password
	SessionSecret string        // Required: session encryption secret
	TokenSecret   string        // Required: capability token signing secret
	TokenTTL      time.Duration // Capability token lifetime (default 12h)
	CookieSecure  bool          // Set true for HTTPS

	// Asset backend (S3-compatible). When Bucket is empty the app runs
	// without cover image support: uploads are rejected, reads degrade.
	AssetEndpoint  string // Base endpoint, e.g. an R2 account URL
	AssetBucket    string
	AssetAccessKey string
	AssetSecretKey string
	AssetPublicURL string // Public base URL handles resolve under

	LogLevel     string        // zerolog level (default "info")
	PostCacheTTL time.Duration // Post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Folio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets such as
// portfolio project images (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithAssetStore overrides the S3-backed asset store, mainly for tests
// and sites that keep uploads elsewhere.
func WithAssetStore(s AssetStore) Option {
	return func(a *App) {
		a.Assets = s
	}
}
