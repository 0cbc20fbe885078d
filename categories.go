package pressroom

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type categoryPayload struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required,min=3"`
}

type categoryCreatePayload struct {
	Name string `json:"name" validate:"required,min=3"`
}

func (a *App) handleCategoryList(c echo.Context) error {
	token := readSessionToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "unauthorized")
	}
	claims, err := a.Sessions.Verify(token)
	if err != nil {
		a.Sessions.clearCookie(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
	}

	author, err := a.Store.GetUserByID(claims.Subject)
	if err != nil {
		return a.categoryStoreError(c, err)
	}

	categories, err := a.Store.ListCategoriesByAuthor(author.ID)
	if err != nil {
		return a.categoryStoreError(c, err)
	}
	if categories == nil {
		categories = []CategoryWithBlogs{}
	}
	return c.JSON(http.StatusOK, categories)
}

// categoryStoreError maps storage failures onto the category endpoint's
// status contract: connection trouble 503, missing rows 404, anything
// else 500.
func (a *App) categoryStoreError(c echo.Context, err error) error {
	c.Logger().Errorf("categories: %v", err)
	switch {
	case IsUnavailable(err):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database connection error - please try again later")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}
}

func (a *App) handleCategoryCreate(c echo.Context) error {
	author, err := a.authorFromSession(c, http.StatusUnauthorized)
	if err != nil {
		return err
	}

	var payload categoryCreatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed category payload")
	}
	if err := a.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "category name must be at least 3 characters")
	}

	category, err := a.Store.CreateCategory(payload.Name, author.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

func (a *App) handleCategoryUpdate(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}

	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed category payload")
	}
	if err := a.validate.Struct(payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "category name must be at least 3 characters")
	}

	if _, err := a.Store.GetCategory(payload.ID); err == ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	} else if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := a.Store.RenameCategory(payload.ID, payload.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, category)
}

func (a *App) handleCategoryDelete(c echo.Context) error {
	if _, err := a.authorFromSession(c, http.StatusUnauthorized); err != nil {
		return err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&payload); err != nil || payload.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing category id")
	}

	category, err := a.Store.DeleteCategory(payload.ID)
	if err == ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, category)
}
