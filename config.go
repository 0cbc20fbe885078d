package pressroom

import "time"

// SiteConfig holds all configuration for a pressroom site.
type SiteConfig struct {
	Name        string // Site name (default "Pressroom")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for meta tags

	Addr                string // Listen address (default ":3000")
	DatabasePath        string // Content SQLite path (default "data/pressroom.db")
	TrafficDatabasePath string // Traffic SQLite path (default "data/traffic.db")

	SessionSecret string        // Required: HS256 secret for session tokens
	SessionTTL    time.Duration // Session token lifetime (default 12h)
	CookieSecure  bool          // Set true for HTTPS

	MediaBaseURL string // Media host API base URL
	MediaAPIKey  string // Media host credential
	MediaFolder  string // Remote folder for thumbnails (default "thumbnails")

	TrafficRetentionDays int // Days of traffic history kept (default 365)

	SentryDSN string // Optional: enables error reporting when set

	BlogCacheTTL time.Duration // Published-blog cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Pressroom"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pressroom.db"
	}
	if c.TrafficDatabasePath == "" {
		c.TrafficDatabasePath = "data/traffic.db"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.MediaFolder == "" {
		c.MediaFolder = "thumbnails"
	}
	if c.TrafficRetentionDays == 0 {
		c.TrafficRetentionDays = 365
	}
	if c.BlogCacheTTL == 0 {
		c.BlogCacheTTL = 5 * time.Minute
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

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithMediaHost injects a media-host implementation, replacing the HTTP
// client built from MediaBaseURL. Used by tests and self-hosted setups.
func WithMediaHost(h MediaHost) Option {
	return func(a *App) {
		a.Media = h
	}
}
