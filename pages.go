package pressroom

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	blogs, err := a.Cache.ListPublished()
	if err != nil {
		return err
	}
	if a.Views.Home != nil {
		return Render(c, a.Views.Home(blogs, a.Config.URL))
	}
	return c.JSON(http.StatusOK, blogs)
}

func (a *App) handleBlogPage(c echo.Context) error {
	slug := c.Param("slug")
	blog, err := a.Cache.GetBySlug(slug)
	if err == ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	}
	if err != nil {
		return err
	}
	if err := a.Store.IncrementBlogViews(blog.ID); err != nil {
		c.Logger().Errorf("increment views for %s: %v", slug, err)
	}
	if a.Views.Post != nil {
		return Render(c, a.Views.Post(blog, a.Config.URL))
	}
	return c.JSON(http.StatusOK, blog)
}

func (a *App) handleContact(c echo.Context) error {
	if a.Views.Contact != nil {
		return Render(c, a.Views.Contact())
	}
	return c.JSON(http.StatusOK, map[string]string{"site": a.Config.Name})
}

func (a *App) handleSigninPage(c echo.Context) error {
	if a.Views.SignIn != nil {
		return Render(c, a.Views.SignIn(false))
	}
	return c.NoContent(http.StatusOK)
}

func (a *App) handleRegisterPage(c echo.Context) error {
	if a.Views.Register != nil {
		return Render(c, a.Views.Register(false))
	}
	return c.NoContent(http.StatusOK)
}

func (a *App) handleDashboard(c echo.Context) error {
	author, err := a.authorFromSession(c, http.StatusUnauthorized)
	if err != nil {
		return err
	}
	blogs, err := a.Store.ListBlogsByAuthor(author.ID)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategoriesByAuthor(author.ID)
	if err != nil {
		return err
	}
	if a.Views.Dashboard != nil {
		return Render(c, a.Views.Dashboard(blogs, categories))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"blogs":      blogs,
		"categories": categories,
	})
}

// handleDailyTraffic serves the public traffic ping. API paths are
// excluded from the request gate's counting, so the upsert happens here.
func (a *App) handleDailyTraffic(c echo.Context) error {
	if err := a.Traffic.RecordVisit(time.Now()); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, http.StatusOK)
}

// handleTrafficSeries returns the stored daily counts for the dashboard
// chart, most recent window first-to-last.
func (a *App) handleTrafficSeries(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}
	days := 30
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -(days - 1))
	series, err := a.Traffic.Range(from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, series)
}

func (a *App) handleTagList(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}
	tags, err := a.Store.ListTags()
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []Tag{}
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleTagCreate(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}
	var payload struct {
		Name string `json:"name" validate:"required,min=2"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed tag payload")
	}
	if err := a.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tag name must be at least 2 characters")
	}
	tag, err := a.Store.CreateTag(payload.Name)
	if err == ErrConflict {
		return echo.NewHTTPError(http.StatusBadRequest, "tag already exists")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if a.Config.SentryDSN != "" {
			sentry.CaptureException(err)
		}
		if a.Views.ServerError != nil && wantsHTML(c) {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}
	if code == http.StatusNotFound && a.Views.NotFound != nil && wantsHTML(c) {
		_ = RenderStatus(c, code, a.Views.NotFound())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// wantsHTML reports whether the client is a browser page load rather than
// an API caller.
func wantsHTML(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return len(accept) >= 9 && accept[:9] == "text/html"
}
