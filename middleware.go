package pressroom

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// publicRoutes lists path prefixes reachable without a session. A path is
// public when it equals an entry exactly or starts with "entry/".
var publicRoutes = []string{"/signin", "/register", "/", "/blogs", "/contact", "/api/public", "/feed.xml", "/sitemap.xml"}

// isPublicPath reports whether path is on the public allow-list.
// Pure function, no I/O.
func isPublicPath(path string) bool {
	for _, route := range publicRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// countsTraffic reports whether a request path participates in daily
// traffic counting. API calls, dashboard chrome, and favicon fetches are
// excluded.
func countsTraffic(path string) bool {
	return !strings.HasPrefix(path, "/api/") &&
		!strings.HasPrefix(path, "/dashboard") &&
		!strings.Contains(path, "favicon")
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		HSTSMaxAge:         31536000,
	}))

	e.Use(a.requestGate)
}

// requestGate composes traffic counting, the route classifier, and the
// session verifier for every inbound request.
//
// Traffic is counted before the authentication decision, exactly once per
// qualifying request, regardless of the auth outcome. A counting failure
// aborts the request rather than passing silently.
func (a *App) requestGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path

		if countsTraffic(path) {
			if err := a.Traffic.RecordVisit(time.Now()); err != nil {
				c.Logger().Errorf("traffic counter: %v", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "traffic counting failed")
			}
		}

		token := readSessionToken(c)

		if !isPublicPath(path) && token == "" {
			return c.Redirect(http.StatusSeeOther, "/signin")
		}

		if token != "" {
			if _, err := a.Sessions.Verify(token); err != nil {
				a.Sessions.clearCookie(c)
				return c.Redirect(http.StatusFound, "/signin")
			}
			if path == "/signin" || path == "/register" {
				return c.Redirect(http.StatusSeeOther, "/dashboard")
			}
		}

		return next(c)
	}
}
