package pressroom

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func categoryRequest(method, body, token string) *http.Request {
	req := httptest.NewRequest(method, "/api/categories", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	return req
}

func TestCategoryLifecycle(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodPost, `{"name":"Tutorials"}`, token))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var created Category
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Name != "Tutorials" {
		t.Errorf("Name = %q, want Tutorials", created.Name)
	}

	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodPut, `{"id":"`+created.ID+`","name":"Guides"}`, token))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodGet, "", token))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var list []CategoryWithBlogs
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Guides" {
		t.Errorf("list = %+v, want one renamed category", list)
	}
	if list[0].Blogs == nil {
		t.Error("Blogs should serialize as an empty array, not null")
	}

	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodDelete, `{"id":"`+created.ID+`"}`, token))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	var removed Category
	if err := json.Unmarshal(rec.Body.Bytes(), &removed); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if removed.ID != created.ID {
		t.Errorf("deleted ID = %q, want %q", removed.ID, created.ID)
	}
}

func TestCategoryListMissingCookie(t *testing.T) {
	a, _ := newTestApp(t)

	// The gate redirects unauthenticated protected requests before the
	// handler's own 400 can fire, so invoke the handler directly.
	req := categoryRequest(http.MethodGet, "", "")
	rec := httptest.NewRecorder()
	c := a.Echo.NewContext(req, rec)

	err := a.handleCategoryList(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("error = %v, want 400", err)
	}
}

func TestCategoryListInvalidToken(t *testing.T) {
	a, _ := newTestApp(t)

	req := categoryRequest(http.MethodGet, "", "tampered-token")
	rec := httptest.NewRecorder()
	c := a.Echo.NewContext(req, rec)

	err := a.handleCategoryList(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("error = %v, want 401", err)
	}
	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid token should clear the session cookie")
	}
}

func TestCategoryListUnknownUser(t *testing.T) {
	a, _ := newTestApp(t)

	// Token signed for a user id that no longer exists in the store.
	token, err := a.Sessions.Issue("ghost-id", "ghost@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := categoryRequest(http.MethodGet, "", token)
	rec := httptest.NewRecorder()
	c := a.Echo.NewContext(req, rec)

	herr := a.handleCategoryList(c)
	he, ok := herr.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("error = %v, want 404 record not found", herr)
	}
}

func TestCategoryCreateNameTooShort(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodPost, `{"name":"ab"}`, token))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCategoryUpdateNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodPut, `{"id":"missing","name":"Valid Name"}`, token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCategoryDeleteNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, categoryRequest(http.MethodDelete, `{"id":"missing"}`, token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
