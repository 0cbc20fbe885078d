package pressroom

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type credentialsForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func (a *App) handleSignin(c echo.Context) error {
	if !a.signinLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "too many sign-in attempts, try again later")
	}

	form := credentialsForm{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
	if err := a.validate.Struct(form); err != nil {
		return a.signinFailure(c)
	}

	user, err := a.Store.GetUserByEmail(form.Email)
	if err == ErrNotFound {
		a.signinLimiter.Record(c.RealIP())
		return a.signinFailure(c)
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)) != nil {
		a.signinLimiter.Record(c.RealIP())
		return a.signinFailure(c)
	}

	token, err := a.Sessions.Issue(user.ID, user.Email)
	if err != nil {
		return err
	}
	a.Sessions.setCookie(c, token)
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (a *App) signinFailure(c echo.Context) error {
	if a.Views.SignIn != nil {
		return RenderStatus(c, http.StatusUnauthorized, a.Views.SignIn(true))
	}
	return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
}

// handleRegister creates the admin account. Registration is open only
// while no user exists; this is a single-admin platform.
func (a *App) handleRegister(c echo.Context) error {
	count, err := a.Store.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusForbidden, "registration is closed")
	}

	form := credentialsForm{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
	if err := a.validate.Struct(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email and a password of at least 8 characters are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := a.Store.CreateUser(form.Email, string(hash)); err != nil {
		if err == ErrConflict {
			return echo.NewHTTPError(http.StatusBadRequest, "account already exists")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/signin")
}

func (a *App) handleSignout(c echo.Context) error {
	a.Sessions.clearCookie(c)
	return c.Redirect(http.StatusSeeOther, "/signin")
}
