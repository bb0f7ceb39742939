package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrBlogNotFound   = errors.New("blog_id does not exist")
	ErrNotPermitted   = errors.New("caller does not own this comment")
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
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

// insert stores the comment and bumps the parent blog's comments_count inside a
// single transaction, so the counter can never drift from the comment rows.
// Returns the blog owner's id for event publication.
func (m *CommentModel) insert(ctx context.Context, c *Comment) (uuid.UUID, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO comments (blog_id, user_id, author_name, author_email, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	var userID interface{}
	if c.UserID != nil {
		userID = *c.UserID
	}

	err = tx.QueryRowContext(ctx, query, c.BlogID, userID, c.AuthorName, c.AuthorEmail, c.Body).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case ForeignKeyError(err, "comments_blog_id_fkey"):
			return uuid.Nil, ErrBlogNotFound
		default:
			return uuid.Nil, err
		}
	}

	ownerID, err := bumpCommentsCount(tx, ctx, c.BlogID, 1)
	if err != nil {
		_ = tx.Rollback()
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	return ownerID, nil
}

// bumpCommentsCount applies an atomic server-side delta to the denormalized
// counter. The decrement clamps at zero; the column's CHECK constraint backs
// that up.
func bumpCommentsCount(tx *sql.Tx, ctx context.Context, blogID uuid.UUID, delta int) (uuid.UUID, error) {
	query := `
		UPDATE blogs
		SET comments_count = GREATEST(comments_count + $1, 0), updated_at = now()
		WHERE id = $2
		RETURNING user_id`

	var ownerID uuid.UUID
	err := tx.QueryRowContext(ctx, query, delta, blogID).Scan(&ownerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return uuid.Nil, ErrBlogNotFound
		default:
			return uuid.Nil, err
		}
	}

	return ownerID, nil
}

func (m *CommentModel) getByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT id, blog_id, user_id, author_name, author_email, body, created_at, updated_at
		FROM comments
		WHERE id = $1`

	var c Comment
	var userID uuid.NullUUID

	err := m.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.BlogID, &userID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if userID.Valid {
		c.UserID = &userID.UUID
	}

	return &c, nil
}

// updateBody mutates only the text body.
func (m *CommentModel) updateBody(ctx context.Context, id uuid.UUID, body string) error {
	query := `
		UPDATE comments
		SET body = $1, updated_at = now()
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, body, id)
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

// delete removes the comment and decrements the parent blog's comments_count in
// one transaction. Returns the blog owner's id for event publication.
func (m *CommentModel) delete(ctx context.Context, c *Comment) (uuid.UUID, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", c.ID)
	if err != nil {
		_ = tx.Rollback()
		return uuid.Nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return uuid.Nil, err
	}
	if rows == 0 {
		_ = tx.Rollback()
		return uuid.Nil, ErrRecordNotFound
	}

	ownerID, err := bumpCommentsCount(tx, ctx, c.BlogID, -1)
	if err != nil {
		_ = tx.Rollback()
		return uuid.Nil, err
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	return ownerID, nil
}

// listByBlog returns the blog's comments in chronological order, oldest first,
// which is the order the thread is displayed in.
func (m *CommentModel) listByBlog(ctx context.Context, blogID uuid.UUID) ([]Comment, error) {
	query := `
		SELECT id, blog_id, user_id, author_name, author_email, body, created_at, updated_at
		FROM comments
		WHERE blog_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := m.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		var userID uuid.NullUUID

		err := rows.Scan(&c.ID, &c.BlogID, &userID, &c.AuthorName, &c.AuthorEmail, &c.Body, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if userID.Valid {
			c.UserID = &userID.UUID
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
