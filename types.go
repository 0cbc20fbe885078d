package pressroom

import "time"

// Blog is the core content type stored in SQLite and served by the API.
// TagIDs carries the many-to-many tag links; the matching inverse index
// lives on each Tag's BlogIDs list and is maintained by the blog handler's
// transactions, never by the database itself.
type Blog struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	Markdown         string    `json:"markdown"`
	TagIDs           []string  `json:"tagsIds"`
	CategoryID       string    `json:"categoryId"`
	Thumbnail        string    `json:"thumbnail"`
	ThumbnailAssetID string    `json:"thumbnailPublicId"`
	Published        bool      `json:"published"`
	Views            int       `json:"views"`
	AuthorID         string    `json:"authorId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Tag names a topic and carries the denormalized back-reference list of
// blogs that use it.
type Tag struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	BlogIDs []string `json:"blogsIds"`
}

// Category groups blogs under a name owned by one author.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryWithBlogs is the category list payload: each category plus the
// blogs currently filed under it.
type CategoryWithBlogs struct {
	Category
	Blogs []Blog `json:"blogs"`
}

// User is an admin account able to sign in to the dashboard.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
