package blogservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUserForeignKey = errors.New("user_id does not exist")
	ErrNotPermitted   = errors.New("caller does not own this blog")
	ErrEditConflict   = errors.New("edit conflict")
	ErrCounterDrift   = errors.New("comments_count does not match the comment rows")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) insert(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (title, content, banner_key, author_name, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, likes_count, comments_count, created_at, updated_at, version`

	err := m.db.QueryRowContext(ctx, query, b.Title, b.Content, b.BannerKey, b.AuthorName, b.UserID).
		Scan(&b.ID, &b.LikesCount, &b.CommentsCount, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) getBlogByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	query := `
		SELECT id, title, content, banner_key, author_name, user_id, likes_count, comments_count, created_at, updated_at, version
		FROM blogs
		WHERE id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.BannerKey, &b.AuthorName, &b.UserID, &b.LikesCount, &b.CommentsCount, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &b, nil
}

// updateBlog writes the mutable fields with an optimistic version check.
func (m *BlogModel) updateBlog(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, banner_key = $3, updated_at = now(), version = version + 1
		WHERE id = $4 AND version = $5 AND user_id = $6
		RETURNING version, created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, b.Title, b.Content, b.BannerKey, b.ID, b.Version, b.UserID).
		Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

// deleteBlog removes the blog; the comments FK cascades, so the thread goes
// with it.
func (m *BlogModel) deleteBlog(ctx context.Context, blogID, userID uuid.UUID) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1 AND user_id = $2`

	res, err := m.db.ExecContext(ctx, query, blogID, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *BlogModel) getBlogsByUserID(ctx context.Context, userID uuid.UUID) ([]Blog, error) {
	query := `
		SELECT id, title, content, banner_key, author_name, user_id, likes_count, comments_count, created_at, updated_at, version
		FROM blogs
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		var b Blog
		err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.BannerKey, &b.AuthorName, &b.UserID, &b.LikesCount, &b.CommentsCount, &b.CreatedAt, &b.UpdatedAt, &b.Version)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// getBlogs returns one page of blogs, newest first, plus the total row count
// for pagination math.
func (m *BlogModel) getBlogs(ctx context.Context, limit, offset int) ([]Blog, int, error) {
	query := `
		SELECT count(*) OVER(), id, title, content, banner_key, author_name, user_id, likes_count, comments_count, created_at, updated_at, version
		FROM blogs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	return m.queryBlogsPage(ctx, query, limit, offset)
}

func (m *BlogModel) getBlogsByTitle(ctx context.Context, title string, limit, offset int) ([]Blog, int, error) {
	query := `
		SELECT count(*) OVER(), id, title, content, banner_key, author_name, user_id, likes_count, comments_count, created_at, updated_at, version
		FROM blogs
		WHERE title ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return m.queryBlogsPage(ctx, query, "%"+title+"%", limit, offset)
}

func (m *BlogModel) queryBlogsPage(ctx context.Context, query string, args ...any) ([]Blog, int, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	blogs := []Blog{}
	for rows.Next() {
		var b Blog
		err := rows.Scan(&total, &b.ID, &b.Title, &b.Content, &b.BannerKey, &b.AuthorName, &b.UserID, &b.LikesCount, &b.CommentsCount, &b.CreatedAt, &b.UpdatedAt, &b.Version)
		if err != nil {
			return nil, 0, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return blogs, total, nil
}

// incrementLikes bumps likes_count with a single server-side atomic update, so
// concurrent likes are never lost. Returns the new count and the owner id.
func (m *BlogModel) incrementLikes(ctx context.Context, blogID uuid.UUID) (int, uuid.UUID, error) {
	query := `
		UPDATE blogs
		SET likes_count = likes_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING likes_count, user_id`

	var count int
	var ownerID uuid.UUID

	err := m.db.QueryRowContext(ctx, query, blogID).Scan(&count, &ownerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, uuid.Nil, ErrRecordNotFound
		default:
			return 0, uuid.Nil, err
		}
	}

	return count, ownerID, nil
}

// getCounts reads the stored comments_count and the true comment row count in
// one statement, for the drift check.
func (m *BlogModel) getCounts(ctx context.Context, blogID uuid.UUID) (stored int, actual int, err error) {
	query := `
		SELECT b.comments_count, (SELECT count(*) FROM comments c WHERE c.blog_id = b.id)
		FROM blogs b
		WHERE b.id = $1`

	err = m.db.QueryRowContext(ctx, query, blogID).Scan(&stored, &actual)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, 0, ErrRecordNotFound
		default:
			return 0, 0, err
		}
	}

	return stored, actual, nil
}
