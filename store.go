package pressroom

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = sql.ErrNoRows

// ErrConflict is returned when a write would violate a uniqueness rule,
// such as two blogs normalizing to the same slug.
var ErrConflict = errors.New("conflicting record exists")

// Store wraps the main SQLite database holding users, blogs, tags, and
// categories.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema setup.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy_timeout so writers wait
	// instead of failing with SQLITE_BUSY, synchronous=NORMAL is safe
	// under WAL and skips an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blogs (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    markdown TEXT NOT NULL,
    tag_ids TEXT NOT NULL DEFAULT ',',
    category_id TEXT NOT NULL DEFAULT '',
    thumbnail TEXT NOT NULL DEFAULT '',
    thumbnail_asset_id TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    author_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blogs_author ON blogs(author_id);
CREATE INDEX IF NOT EXISTS idx_blogs_category ON blogs(category_id);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    blog_ids TEXT NOT NULL DEFAULT ','
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    author_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_categories_author ON categories(author_id);
`)
	return err
}

// IsUnavailable reports whether err looks like a database connectivity or
// contention failure rather than a bad query or missing row. The category
// handler maps these to 503.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "unable to open")
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- users ---

// CreateUser inserts a new admin user and returns it with a generated id.
func (s *Store) CreateUser(email, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail returns the user with the given email address.
func (s *Store) GetUserByEmail(email string) (User, error) {
	return s.getUser(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID returns the user with the given id.
func (s *Store) GetUserByID(id string) (User, error) {
	return s.getUser(`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) getUser(query, arg string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRow(query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// CountUsers returns the number of registered admin users.
func (s *Store) CountUsers() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// --- blogs ---

const blogColumns = `id, title, slug, description, markdown, tag_ids, category_id,
	thumbnail, thumbnail_asset_id, published, views, author_id, created_at, updated_at`

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var b Blog
	var tagIDs, created, updated string
	var published int
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Description, &b.Markdown, &tagIDs,
		&b.CategoryID, &b.Thumbnail, &b.ThumbnailAssetID, &published, &b.Views,
		&b.AuthorID, &created, &updated)
	if err != nil {
		return Blog{}, err
	}
	b.TagIDs = ParseIDList(tagIDs)
	b.Published = published == 1
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func collectBlogs(rows *sql.Rows) ([]Blog, error) {
	defer rows.Close()
	var blogs []Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

// GetBlogBySlug returns the blog with the given slug.
func (s *Store) GetBlogBySlug(slug string) (Blog, error) {
	return scanBlog(s.db.QueryRow(`SELECT `+blogColumns+` FROM blogs WHERE slug = ?`, slug))
}

// GetBlogByID returns the blog with the given id.
func (s *Store) GetBlogByID(id string) (Blog, error) {
	return scanBlog(s.db.QueryRow(`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
}

// ListBlogsByAuthor returns every blog by the author, newest first.
func (s *Store) ListBlogsByAuthor(authorID string) ([]Blog, error) {
	rows, err := s.db.Query(`SELECT `+blogColumns+` FROM blogs WHERE author_id = ? ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// ListPublishedBlogs returns every published blog, newest first.
func (s *Store) ListPublishedBlogs() ([]Blog, error) {
	rows, err := s.db.Query(`SELECT ` + blogColumns + ` FROM blogs WHERE published = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// listBlogsByCategory returns the blogs filed under a category, newest first.
func (s *Store) listBlogsByCategory(categoryID string) ([]Blog, error) {
	rows, err := s.db.Query(`SELECT `+blogColumns+` FROM blogs WHERE category_id = ? ORDER BY created_at DESC`, categoryID)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// IncrementBlogViews bumps the view counter for a published blog.
func (s *Store) IncrementBlogViews(id string) error {
	_, err := s.db.Exec(`UPDATE blogs SET views = views + 1 WHERE id = ?`, id)
	return err
}

// CreateBlogWithTags inserts the blog and, in the same transaction, appends
// the new blog's id to the back-reference list of every referenced tag that
// exists; unknown tag ids are skipped. Returns ErrConflict without writing
// anything when the slug is taken.
func (s *Store) CreateBlogWithTags(b Blog) (Blog, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return Blog{}, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRow(`SELECT id FROM blogs WHERE slug = ?`, b.Slug).Scan(&existing)
	if err == nil {
		return Blog{}, ErrConflict
	}
	if err != sql.ErrNoRows {
		return Blog{}, err
	}

	published := 0
	if b.Published {
		published = 1
	}
	_, err = tx.Exec(`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Slug, b.Description, b.Markdown, JoinIDList(b.TagIDs),
		b.CategoryID, b.Thumbnail, b.ThumbnailAssetID, published, b.Views,
		b.AuthorID, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return Blog{}, ErrConflict
		}
		return Blog{}, err
	}

	for _, tagID := range b.TagIDs {
		var list string
		if err := tx.QueryRow(`SELECT blog_ids FROM tags WHERE id = ?`, tagID).Scan(&list); err != nil {
			// Unknown tag ids are skipped, not rejected: the stored id
			// list keeps them, back-references only exist for real tags.
			if err == sql.ErrNoRows {
				continue
			}
			return Blog{}, err
		}
		ids := append(ParseIDList(list), b.ID)
		if _, err := tx.Exec(`UPDATE tags SET blog_ids = ? WHERE id = ?`, JoinIDList(ids), tagID); err != nil {
			return Blog{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Blog{}, err
	}
	return b, nil
}

// DeleteBlogDetachingTags removes the blog row and, in the same transaction,
// rewrites every tag back-reference list that contains the blog's id.
// Returns the deleted blog so the caller can clean up its remote thumbnail.
func (s *Store) DeleteBlogDetachingTags(id string) (Blog, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Blog{}, err
	}
	defer tx.Rollback()

	b, err := scanBlog(tx.QueryRow(`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
	if err != nil {
		return Blog{}, err
	}

	rows, err := tx.Query(`SELECT id, blog_ids FROM tags WHERE instr(blog_ids, ',' || ? || ',') > 0`, b.ID)
	if err != nil {
		return Blog{}, err
	}
	type tagRow struct{ id, list string }
	var related []tagRow
	for rows.Next() {
		var tr tagRow
		if err := rows.Scan(&tr.id, &tr.list); err != nil {
			rows.Close()
			return Blog{}, err
		}
		related = append(related, tr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Blog{}, err
	}

	for _, tr := range related {
		kept := RemoveID(ParseIDList(tr.list), b.ID)
		if _, err := tx.Exec(`UPDATE tags SET blog_ids = ? WHERE id = ?`, JoinIDList(kept), tr.id); err != nil {
			return Blog{}, err
		}
	}

	if _, err := tx.Exec(`DELETE FROM blogs WHERE id = ?`, b.ID); err != nil {
		return Blog{}, err
	}
	if err := tx.Commit(); err != nil {
		return Blog{}, err
	}
	return b, nil
}

// --- tags ---

// CreateTag inserts a new tag with an empty back-reference list.
func (s *Store) CreateTag(name string) (Tag, error) {
	t := Tag{ID: uuid.NewString(), Name: strings.TrimSpace(name)}
	_, err := s.db.Exec(`INSERT INTO tags (id, name, blog_ids) VALUES (?, ?, ',')`, t.ID, t.Name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return Tag{}, ErrConflict
		}
		return Tag{}, err
	}
	return t, nil
}

// GetTag returns a tag by id.
func (s *Store) GetTag(id string) (Tag, error) {
	var t Tag
	var list string
	err := s.db.QueryRow(`SELECT id, name, blog_ids FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name, &list)
	if err != nil {
		return Tag{}, err
	}
	t.BlogIDs = ParseIDList(list)
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, blog_ids FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		var list string
		if err := rows.Scan(&t.ID, &t.Name, &list); err != nil {
			return nil, err
		}
		t.BlogIDs = ParseIDList(list)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TagNames resolves tag ids to their names, keeping input order and
// skipping unknown ids.
func (s *Store) TagNames(ids []string) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		var name string
		err := s.db.QueryRow(`SELECT name FROM tags WHERE id = ?`, id).Scan(&name)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// --- categories ---

// CreateCategory inserts a new category owned by the author.
func (s *Store) CreateCategory(name, authorID string) (Category, error) {
	cat := Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO categories (id, name, author_id, created_at) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.AuthorID, formatTime(cat.CreatedAt))
	if err != nil {
		return Category{}, err
	}
	return cat, nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(id string) (Category, error) {
	var cat Category
	var created string
	err := s.db.QueryRow(`SELECT id, name, author_id, created_at FROM categories WHERE id = ?`, id).
		Scan(&cat.ID, &cat.Name, &cat.AuthorID, &created)
	if err != nil {
		return Category{}, err
	}
	cat.CreatedAt = parseTime(created)
	return cat, nil
}

// ListCategoriesByAuthor returns the author's categories with their linked
// blogs attached.
func (s *Store) ListCategoriesByAuthor(authorID string) ([]CategoryWithBlogs, error) {
	rows, err := s.db.Query(`SELECT id, name, author_id, created_at FROM categories WHERE author_id = ? ORDER BY name ASC`, authorID)
	if err != nil {
		return nil, err
	}
	var cats []CategoryWithBlogs
	for rows.Next() {
		var cat Category
		var created string
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.AuthorID, &created); err != nil {
			rows.Close()
			return nil, err
		}
		cat.CreatedAt = parseTime(created)
		cats = append(cats, CategoryWithBlogs{Category: cat})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range cats {
		blogs, err := s.listBlogsByCategory(cats[i].ID)
		if err != nil {
			return nil, err
		}
		if blogs == nil {
			blogs = []Blog{}
		}
		cats[i].Blogs = blogs
	}
	return cats, nil
}

// RenameCategory updates the category name and returns the updated record.
func (s *Store) RenameCategory(id, name string) (Category, error) {
	res, err := s.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if err != nil {
		return Category{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Category{}, err
	} else if n == 0 {
		return Category{}, ErrNotFound
	}
	return s.GetCategory(id)
}

// DeleteCategory removes the category and returns the removed record.
func (s *Store) DeleteCategory(id string) (Category, error) {
	cat, err := s.GetCategory(id)
	if err != nil {
		return Category{}, err
	}
	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return Category{}, err
	}
	return cat, nil
}
