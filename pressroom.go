// Package pressroom is an admin-managed blog platform built with Go and Echo.
// It provides a public blog reader, a session-authenticated dashboard with
// blog and category CRUD, daily traffic counting, and thumbnail hosting on
// an external media service.
//
// Users provide their own templ components via the ViewFuncs struct for the
// HTML pages; every endpoint also works headless, answering JSON when no
// view is installed.
package pressroom

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/okandemir/pressroom/media"
	"github.com/okandemir/pressroom/traffic"
)

// MediaHost is the external image-hosting service the blog handler uploads
// thumbnails to and deletes them from.
type MediaHost interface {
	Upload(ctx context.Context, filename string, data []byte) (media.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// ViewFuncs holds user-provided templ components rendered for page loads.
// Any nil field makes the matching route answer JSON instead.
type ViewFuncs struct {
	Home        func(blogs []Blog, siteURL string) templ.Component
	Post        func(blog Blog, siteURL string) templ.Component
	Contact     func() templ.Component
	SignIn      func(showError bool) templ.Component
	Register    func(showError bool) templ.Component
	Dashboard   func(blogs []Blog, categories []CategoryWithBlogs) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central pressroom application. It wires together the stores,
// session verifier, media host, handlers, and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Traffic  *traffic.Store
	Media    MediaHost
	Sessions *Sessions
	Cache    *BlogCache
	Views    ViewFuncs

	validate      *validator.Validate
	signinLimiter *SigninLimiter
	cron          *cron.Cron
	customRoutes  []func(*App)
	staticDir     string
}

// New creates a pressroom App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		validate:  validator.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the stores, session verifier, media client, middleware,
// and routes, then starts the server.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) init() error {
	sessions, err := NewSessions(a.Config.SessionSecret, a.Config.SessionTTL, a.Config.CookieSecure)
	if err != nil {
		return fmt.Errorf("pressroom: sessions: %w", err)
	}
	a.Sessions = sessions

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pressroom: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewBlogCache(store, a.Config.BlogCacheTTL)

	trafficStore, err := traffic.NewStore(a.Config.TrafficDatabasePath)
	if err != nil {
		return fmt.Errorf("pressroom: init traffic store: %w", err)
	}
	a.Traffic = trafficStore

	if a.Media == nil {
		if a.Config.MediaBaseURL == "" {
			return fmt.Errorf("pressroom: MediaBaseURL is required when no media host is injected")
		}
		a.Media = media.NewClient(a.Config.MediaBaseURL, a.Config.MediaAPIKey, a.Config.MediaFolder)
	}

	a.signinLimiter = NewSigninLimiter(5, signinWindow)

	if a.Config.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: a.Config.SentryDSN}); err != nil {
			return fmt.Errorf("pressroom: init sentry: %w", err)
		}
	}

	a.cron = cron.New()
	retention := a.Config.TrafficRetentionDays
	if _, err := a.cron.AddFunc("@daily", func() {
		if err := a.Traffic.Cleanup(retention); err != nil {
			a.Echo.Logger.Errorf("traffic cleanup: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("pressroom: schedule traffic cleanup: %w", err)
	}
	a.cron.Start()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/blogs/:slug", a.handleBlogPage)
	e.GET("/contact", a.handleContact)
	e.GET("/signin", a.handleSigninPage)
	e.GET("/register", a.handleRegisterPage)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Auth flow
	e.POST("/signin", a.handleSignin)
	e.POST("/register", a.handleRegister)
	e.POST("/signout", a.handleSignout)

	// Dashboard
	e.GET("/dashboard", a.handleDashboard)

	// API
	e.POST("/api/blogs", a.handleBlogCreate)
	e.GET("/api/blogs", a.handleBlogList)
	e.DELETE("/api/blogs", a.handleBlogDelete)

	e.GET("/api/categories", a.handleCategoryList)
	e.POST("/api/categories", a.handleCategoryCreate)
	e.PUT("/api/categories", a.handleCategoryUpdate)
	e.DELETE("/api/categories", a.handleCategoryDelete)

	e.GET("/api/tags", a.handleTagList)
	e.POST("/api/tags", a.handleTagCreate)

	e.GET("/api/traffic", a.handleTrafficSeries)
	e.GET("/api/public/daily-traffic-schedule", a.handleDailyTraffic)
}

// Close cleans up resources. Call when the app is shutting down.
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Traffic != nil {
		a.Traffic.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback
// when empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits when empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pressroom: required environment variable %s is not set", key)
	}
	return v
}
