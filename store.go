package folio

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// resolveTimeout bounds cover URL resolution on read paths. The asset
// backend sits across a network boundary; a slow resolve must not stall
// a listing.
const resolveTimeout = 5 * time.Second

// Store wraps a SQLite database and owns the Post entities: create,
// update, delete, and the three read patterns (by slug, all, published).
// Cover image handles are resolved to URLs through the injected
// AssetStore; resolution failures degrade to an empty URL on reads.
type Store struct {
	db     *sql.DB
	assets AssetStore
	log    zerolog.Logger
	now    func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations. assets may be nil, in which
// case posts are returned without resolved cover URLs.
func NewStore(path string, assets AssetStore) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately.
	// synchronous=NORMAL is safe with WAL and avoids an fsync per
	// transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{
		db:     db,
		assets: assets,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogger attaches a logger for degraded-read warnings.
func (s *Store) SetLogger(l zerolog.Logger) {
	s.log = l
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    cover_image TEXT,
    published_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`)
	return err
}

// isSlugConflict detects a violation of the slug uniqueness constraint.
// The driver exposes constraint failures only through the error text.
func isSlugConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: posts.slug")
}

// CreatePost inserts a new post and returns its identity. CreatedAt and
// UpdatedAt are stamped now; PublishedAt is stamped now only when
// draft.Publish is set. A slug already held by another post is rejected
// with ErrDuplicateSlug.
func (s *Store) CreatePost(ctx context.Context, draft PostDraft) (string, error) {
	id := uuid.NewString()
	now := s.now().UnixMilli()
	var publishedAt any
	if draft.Publish {
		publishedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, slug, content, excerpt, cover_image, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, draft.Title, draft.Slug, draft.Content, draft.Excerpt, nullIfEmpty(draft.CoverImage), publishedAt, now, now)
	if isSlugConflict(err) {
		return "", ErrDuplicateSlug
	}
	if err != nil {
		return "", fmt.Errorf("folio: create post: %w", err)
	}
	return id, nil
}

// UpdatePost replaces all editable fields of the post with the given
// identity. UpdatedAt is stamped unconditionally. The publish timestamp
// follows the workflow rules: a post that is already published keeps its
// original PublishedAt on republish, a draft being published is stamped
// now, and Publish=false always clears the timestamp. The rule runs
// inside the UPDATE itself, so concurrent updates to one row stay
// atomic last-write-wins with no read-modify-write window.
func (s *Store) UpdatePost(ctx context.Context, id string, draft PostDraft) error {
	now := s.now().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, slug = ?, content = ?, excerpt = ?, cover_image = ?,
		    published_at = CASE WHEN ? THEN COALESCE(published_at, ?) ELSE NULL END,
		    updated_at = ?
		 WHERE id = ?`,
		draft.Title, draft.Slug, draft.Content, draft.Excerpt, nullIfEmpty(draft.CoverImage),
		draft.Publish, now, now, id)
	if isSlugConflict(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("folio: update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("folio: update post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post by identity. Deleting an unknown identity
// returns ErrNotFound, symmetric with UpdatePost.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("folio: delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("folio: delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBySlug returns the post with the given slug, draft or published, or
// nil when no post matches. Slug uniqueness guarantees at most one row.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, slug, content, excerpt, cover_image, published_at, created_at, updated_at
		 FROM posts WHERE slug = ?`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("folio: get post: %w", err)
	}
	s.resolveCover(ctx, &p)
	return &p, nil
}

// GetByID returns the post with the given identity, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, slug, content, excerpt, cover_image, published_at, created_at, updated_at
		 FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("folio: get post: %w", err)
	}
	s.resolveCover(ctx, &p)
	return &p, nil
}

// ListAll returns every post, drafts included, ordered by creation time
// descending. Used only by the authoring surface.
func (s *Store) ListAll(ctx context.Context) ([]Post, error) {
	return s.list(ctx,
		`SELECT id, title, slug, content, excerpt, cover_image, published_at, created_at, updated_at
		 FROM posts ORDER BY created_at DESC, id`)
}

// ListPublished returns published posts ordered by publish time descending.
func (s *Store) ListPublished(ctx context.Context) ([]Post, error) {
	return s.list(ctx,
		`SELECT id, title, slug, content, excerpt, cover_image, published_at, created_at, updated_at
		 FROM posts WHERE published_at IS NOT NULL ORDER BY published_at DESC, id`)
}

func (s *Store) list(ctx context.Context, query string) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("folio: list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("folio: list posts: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("folio: list posts: %w", err)
	}
	for i := range posts {
		s.resolveCover(ctx, &posts[i])
	}
	return posts, nil
}

// resolveCover fills CoverImageURL for posts that carry a handle. A
// failing or slow backend degrades to an empty URL; covers are
// decorative, not structural.
func (s *Store) resolveCover(ctx context.Context, p *Post) {
	if p.CoverImage == "" || s.assets == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	url, err := s.assets.Resolve(rctx, p.CoverImage)
	if err != nil {
		s.log.Warn().Err(err).Str("slug", p.Slug).Msg("cover image resolution failed")
		return
	}
	p.CoverImageURL = url
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var cover sql.NullString
	var publishedAt sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &cover, &publishedAt, &createdAt, &updatedAt)
	if err != nil {
		return Post{}, err
	}
	p.CoverImage = cover.String
	if publishedAt.Valid {
		t := time.UnixMilli(publishedAt.Int64).UTC()
		p.PublishedAt = &t
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	p.Link = "/blog/" + p.Slug
	return p, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
