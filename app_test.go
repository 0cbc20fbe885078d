package pressroom

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/okandemir/pressroom/media"
	"github.com/okandemir/pressroom/traffic"
)

// fakeMediaHost records uploads and deletions instead of calling out.
type fakeMediaHost struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	failNext bool
}

func (f *fakeMediaHost) Upload(_ context.Context, filename string, _ []byte) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return media.Asset{}, context.DeadlineExceeded
	}
	f.uploads = append(f.uploads, filename)
	return media.Asset{
		PublicID:  "thumbnails/" + filename,
		SecureURL: "https://cdn.test/" + filename,
	}, nil
}

func (f *fakeMediaHost) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, publicID)
	return nil
}

func (f *fakeMediaHost) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

const testSecret = "test-secret-0123456789abcdef"

// newTestApp builds a fully wired App on temp databases with a fake media
// host. Routes and middleware are installed; the server is not started.
func newTestApp(t *testing.T) (*App, *fakeMediaHost) {
	t.Helper()
	dir := t.TempDir()

	store, err := NewStore(filepath.Join(dir, "main.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	trafficStore, err := traffic.NewStore(filepath.Join(dir, "traffic.db"))
	if err != nil {
		t.Fatalf("failed to create traffic store: %v", err)
	}
	sessions, err := NewSessions(testSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("failed to create sessions: %v", err)
	}

	host := &fakeMediaHost{}
	cfg := SiteConfig{}
	cfg.setDefaults()

	a := &App{
		Config:        cfg,
		Echo:          echo.New(),
		Store:         store,
		Traffic:       trafficStore,
		Media:         host,
		Sessions:      sessions,
		Cache:         NewBlogCache(store, time.Minute),
		validate:      validator.New(),
		signinLimiter: NewSigninLimiter(5, time.Minute),
		staticDir:     "public",
	}
	a.Echo.Logger.SetOutput(discard{})
	a.setupMiddleware()
	a.setupRoutes()

	t.Cleanup(func() {
		store.Close()
		trafficStore.Close()
	})
	return a, host
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// createTestUser registers a user directly in the store and returns it
// with a valid session token.
func createTestUser(t *testing.T, a *App, email, password string) (User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := a.Store.CreateUser(email, string(hash))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := a.Sessions.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}
