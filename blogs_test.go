package pressroom

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func blogCreateRequest(t *testing.T, token, title string, tagIDs []string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	tags, err := json.Marshal(tagIDs)
	if err != nil {
		t.Fatalf("marshal tags: %v", err)
	}
	fields := map[string]string{
		"title":       title,
		"description": "a description",
		"content":     "# markdown body",
		"category":    "cat-1",
		"tags":        string(tags),
		"published":   "true",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile("thumbNail", "cover.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBytes(t, 100, 80)); err != nil {
		t.Fatalf("write image: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/blogs", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	return req
}

func TestBlogCreate(t *testing.T) {
	a, host := newTestApp(t)
	user, token := createTestUser(t, a, "admin@example.com", "password123")

	tag, err := a.Store.CreateTag("go")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, token, "My First Blog!", []string{tag.ID}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp blogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Slug != "my-first-blog" {
		t.Errorf("Slug = %q, want my-first-blog", resp.Slug)
	}
	if resp.AuthorID != user.ID {
		t.Errorf("AuthorID = %q, want %q", resp.AuthorID, user.ID)
	}
	if len(resp.Tags) != 1 || resp.Tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", resp.Tags)
	}
	if !strings.HasPrefix(resp.Thumbnail, "https://cdn.test/") {
		t.Errorf("Thumbnail = %q, want cdn URL", resp.Thumbnail)
	}
	if len(host.uploads) != 1 {
		t.Errorf("uploads = %v, want one upload", host.uploads)
	}

	// The tag's back-reference list must now contain the blog.
	got, err := a.Store.GetTag(tag.ID)
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if len(got.BlogIDs) != 1 || got.BlogIDs[0] != resp.ID {
		t.Errorf("tag BlogIDs = %v, want [%s]", got.BlogIDs, resp.ID)
	}
}

func TestBlogCreateDuplicateSlug(t *testing.T) {
	a, host := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, token, "Same Title", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first create status = %d, want 200", rec.Code)
	}
	uploadsBefore := len(host.uploads)

	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, token, "Same! Title?", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate slug status = %d, want 400", rec.Code)
	}
	// The conflict is detected before the upload, so no new asset exists.
	if len(host.uploads) != uploadsBefore {
		t.Errorf("duplicate create uploaded a thumbnail: %v", host.uploads)
	}

	blogs, err := a.Store.ListBlogsByAuthor(mustUserID(t, a, "admin@example.com"))
	if err != nil {
		t.Fatalf("ListBlogsByAuthor failed: %v", err)
	}
	if len(blogs) != 1 {
		t.Errorf("blog count = %d, want 1 (no writes on conflict)", len(blogs))
	}
}

func mustUserID(t *testing.T, a *App, email string) string {
	t.Helper()
	u, err := a.Store.GetUserByEmail(email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	return u.ID
}

func TestBlogCreateUnauthorized(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, "", "No Session", nil))
	// No cookie on a protected path: the gate redirects to sign-in.
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
}

func TestBlogCreateExpiredSession(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, "not-a-real-token", "X", nil))
	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302 redirect from the gate", rec.Code)
	}
	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("invalid session cookie was not deleted")
	}
}

func TestBlogList(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	for _, title := range []string{"One", "Two"} {
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, blogCreateRequest(t, token, title, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("create %s status = %d", title, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var blogs []Blog
	if err := json.Unmarshal(rec.Body.Bytes(), &blogs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(blogs) != 2 {
		t.Errorf("count = %d, want 2", len(blogs))
	}
}

func TestBlogDeleteDetachesTagsAndRemovesThumbnail(t *testing.T) {
	a, host := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	tag, err := a.Store.CreateTag("go")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, blogCreateRequest(t, token, "Doomed Post", []string{tag.ID}))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created blogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/blogs", strings.NewReader(`"`+created.ID+`"`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	if _, err := a.Store.GetBlogByID(created.ID); err != ErrNotFound {
		t.Errorf("blog should be gone, got %v", err)
	}
	got, err := a.Store.GetTag(tag.ID)
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if len(got.BlogIDs) != 0 {
		t.Errorf("tag BlogIDs = %v, want empty", got.BlogIDs)
	}
	deleted := host.deleted()
	if len(deleted) != 1 || deleted[0] != created.ThumbnailAssetID {
		t.Errorf("media deletes = %v, want [%s]", deleted, created.ThumbnailAssetID)
	}
}

func TestBlogDeleteNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	req := httptest.NewRequest(http.MethodDelete, "/api/blogs", strings.NewReader(`"missing-id"`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestBlogDeleteSkipsShortAssetIDs(t *testing.T) {
	a, host := newTestApp(t)
	_, token := createTestUser(t, a, "admin@example.com", "password123")

	blog, err := a.Store.CreateBlogWithTags(Blog{
		Title: "Short Asset", Slug: "short-asset", ThumbnailAssetID: "abc", AuthorID: "a",
	})
	if err != nil {
		t.Fatalf("CreateBlogWithTags failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/blogs", strings.NewReader(blog.ID))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(host.deleted()) != 0 {
		t.Errorf("short asset ids must not trigger remote deletion: %v", host.deleted())
	}
}
