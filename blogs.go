package pressroom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/okandemir/pressroom/media"
)

// blogForm is the multipart payload for blog creation. Tags arrive as a
// JSON array string and published as "true"/"false", matching the
// dashboard's form encoding.
type blogForm struct {
	Title       string   `validate:"required,min=3,max=200"`
	Description string   `validate:"required,max=500"`
	Content     string   `validate:"required"`
	Category    string   `validate:"required"`
	Tags        []string `validate:"dive,required"`
	Published   bool
}

// blogResponse is a created blog with its tag names attached.
type blogResponse struct {
	Blog
	Tags []string `json:"tags"`
}

// authorFromSession authenticates the request from its session cookie and
// resolves the author. The cookie is cleared before any session error is
// returned.
func (a *App) authorFromSession(c echo.Context, status int) (User, error) {
	token := readSessionToken(c)
	if token == "" {
		return User{}, echo.NewHTTPError(status, "unauthorized")
	}
	claims, err := a.Sessions.Verify(token)
	if err != nil {
		a.Sessions.clearCookie(c)
		return User{}, echo.NewHTTPError(status, "session expired")
	}
	author, err := a.Store.GetUserByID(claims.Subject)
	if err == ErrNotFound {
		a.Sessions.clearCookie(c)
		return User{}, echo.NewHTTPError(status, "user doesn't exist / session expired")
	}
	if err != nil {
		return User{}, err
	}
	return author, nil
}

func (a *App) handleBlogCreate(c echo.Context) error {
	author, err := a.authorFromSession(c, http.StatusUnauthorized)
	if err != nil {
		return err
	}

	form, err := parseBlogForm(c)
	if err != nil {
		return err
	}
	if err := a.validate.Struct(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	slug := Slugify(form.Title)
	if slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title yields an empty slug")
	}
	if _, err := a.Store.GetBlogBySlug(slug); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "a blog with this title already exists")
	} else if err != ErrNotFound {
		return err
	}

	// The thumbnail is uploaded to the media host before the database
	// transaction: a failed upload must not leave a blog row behind.
	asset, err := a.uploadThumbnail(c, slug)
	if err != nil {
		return err
	}

	blog, err := a.Store.CreateBlogWithTags(Blog{
		Title:            form.Title,
		Slug:             slug,
		Description:      form.Description,
		Markdown:         form.Content,
		TagIDs:           form.Tags,
		CategoryID:       form.Category,
		Thumbnail:        asset.SecureURL,
		ThumbnailAssetID: asset.PublicID,
		Published:        form.Published,
		AuthorID:         author.ID,
	})
	if err == ErrConflict {
		return echo.NewHTTPError(http.StatusBadRequest, "a blog with this title already exists")
	}
	if err != nil {
		return err
	}

	a.Cache.Invalidate()

	names, err := a.Store.TagNames(blog.TagIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, blogResponse{Blog: blog, Tags: names})
}

func parseBlogForm(c echo.Context) (blogForm, error) {
	form := blogForm{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: strings.TrimSpace(c.FormValue("description")),
		Content:     c.FormValue("content"),
		Category:    strings.TrimSpace(c.FormValue("category")),
		Published:   c.FormValue("published") == "true",
	}
	if raw := c.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Tags); err != nil {
			return blogForm{}, echo.NewHTTPError(http.StatusBadRequest, "tags must be a JSON array of ids")
		}
	}
	return form, nil
}

func (a *App) uploadThumbnail(c echo.Context, slug string) (media.Asset, error) {
	file, err := c.FormFile("thumbNail")
	if err != nil {
		return media.Asset{}, echo.NewHTTPError(http.StatusBadRequest, "thumbnail file is required")
	}
	if file.Size > media.MaxUploadSize {
		return media.Asset{}, echo.NewHTTPError(http.StatusBadRequest, "thumbnail too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return media.Asset{}, err
	}
	defer src.Close()

	data, err := media.ProcessThumbnail(src)
	if err != nil {
		return media.Asset{}, echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	asset, err := a.Media.Upload(c.Request().Context(), slug+".jpg", data)
	if err != nil {
		c.Logger().Errorf("media upload: %v", err)
		return media.Asset{}, echo.NewHTTPError(http.StatusBadGateway, "thumbnail upload failed")
	}
	return asset, nil
}

func (a *App) handleBlogList(c echo.Context) error {
	// The list endpoint reports every auth failure as 400.
	author, err := a.authorFromSession(c, http.StatusBadRequest)
	if err != nil {
		return err
	}
	blogs, err := a.Store.ListBlogsByAuthor(author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if blogs == nil {
		blogs = []Blog{}
	}
	return c.JSON(http.StatusOK, blogs)
}

func (a *App) handleBlogDelete(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}

	id, err := readBlogID(c)
	if err != nil {
		return err
	}

	blog, err := a.Store.DeleteBlogDetachingTags(id)
	if err == ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "blog does not exist")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a.Cache.Invalidate()

	// Best-effort remote cleanup after the transaction committed. A
	// failure here orphans the remote asset, never the primary store.
	if len(blog.ThumbnailAssetID) > 5 {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Media.Delete(ctx, blog.ThumbnailAssetID); err != nil {
			c.Logger().Errorf("delete thumbnail %s: %v", blog.ThumbnailAssetID, err)
		}
	}

	return c.JSON(http.StatusOK, fmt.Sprintf("%s has been deleted", blog.Title))
}

// readBlogID reads the request body as either a bare id or a JSON string.
func readBlogID(c echo.Context) (string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1024))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing blog id")
	}
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing blog id")
	}
	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		id = raw
	}
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing blog id")
	}
	return id, nil
}
