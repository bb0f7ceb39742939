package commentservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktruong/campusblog/internal/common"
)

func setupTestEnvironment(t *testing.T) (*CommentService, *sql.DB, uuid.UUID, uuid.UUID) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	require.NoError(t, err)

	var userId uuid.UUID
	err = db.QueryRow("INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id", "testuser", "testuser@example.com", randomBytes).Scan(&userId)
	require.NoError(t, err)

	var blogId uuid.UUID
	err = db.QueryRow("INSERT INTO blogs (title, content, banner_key, author_name, user_id) VALUES ($1, $2, $3, $4, $5) RETURNING id", "Test Blog", "<p>content</p>", "banners/test.jpg", "testuser", userId).Scan(&blogId)
	require.NoError(t, err)

	return NewCommentService(db, nil, cache), db, userId, blogId
}

func counts(t *testing.T, db *sql.DB, blogId uuid.UUID) (stored int, actual int) {
	t.Helper()

	err := db.QueryRow("SELECT comments_count, (SELECT count(*) FROM comments WHERE blog_id = blogs.id) FROM blogs WHERE id = $1", blogId).Scan(&stored, &actual)
	require.NoError(t, err)

	return stored, actual
}

func TestCreateComment(t *testing.T) {
	s, db, userId, blogId := setupTestEnvironment(t)

	// Each successful insert moves the counter in step with the rows.
	for i := 1; i <= 3; i++ {
		comment, err := s.CreateComment(context.Background(), &CreateCommentRequest{
			BlogID:     blogId,
			AuthorName: "visitor",
			Body:       fmt.Sprintf("comment %d", i),
		})
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, comment.ID)
		assert.Nil(t, comment.UserID)

		stored, actual := counts(t, db, blogId)
		assert.Equal(t, i, stored)
		assert.Equal(t, actual, stored)
	}

	// A registered commenter keeps their identity.
	comment, err := s.CreateComment(context.Background(), &CreateCommentRequest{
		BlogID:     blogId,
		UserID:     &userId,
		AuthorName: "testuser",
		Body:       "mine",
	})
	assert.NoError(t, err)
	require.NotNil(t, comment.UserID)
	assert.Equal(t, userId, *comment.UserID)

	testCases := []struct {
		name        string
		req         *CreateCommentRequest
		expectedErr error
	}{
		{
			name: "blank body",
			req: &CreateCommentRequest{
				BlogID:     blogId,
				AuthorName: "visitor",
				Body:       "   ",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"body": "must not be empty"}},
		},
		{
			name: "missing author name",
			req: &CreateCommentRequest{
				BlogID: blogId,
				Body:   "hello",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"author_name": "must be provided"}},
		},
		{
			name: "invalid author email",
			req: &CreateCommentRequest{
				BlogID:      blogId,
				AuthorName:  "visitor",
				AuthorEmail: "not-an-email",
				Body:        "hello",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"author_email": "must be a valid email address"}},
		},
		{
			name: "unknown blog",
			req: &CreateCommentRequest{
				BlogID:     uuid.Must(uuid.NewV4()),
				AuthorName: "visitor",
				Body:       "orphan",
			},
			expectedErr: ErrBlogNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateComment(context.Background(), tc.req)
			assert.Equal(t, tc.expectedErr, err)

			// failed inserts leave the counter and the rows alone
			stored, actual := counts(t, db, blogId)
			assert.Equal(t, 4, stored)
			assert.Equal(t, 4, actual)
		})
	}
}

func TestUpdateComment(t *testing.T) {
	s, _, userId, blogId := setupTestEnvironment(t)

	mine, err := s.CreateComment(context.Background(), &CreateCommentRequest{
		BlogID:     blogId,
		UserID:     &userId,
		AuthorName: "testuser",
		Body:       "original",
	})
	require.NoError(t, err)

	anonymous, err := s.CreateComment(context.Background(), &CreateCommentRequest{
		BlogID:     blogId,
		AuthorName: "visitor",
		Body:       "anonymous",
	})
	require.NoError(t, err)

	updated, err := s.UpdateComment(context.Background(), mine.ID, userId, "edited")
	assert.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)

	// someone else's comment is off limits
	_, err = s.UpdateComment(context.Background(), mine.ID, uuid.Must(uuid.NewV4()), "hijacked")
	assert.ErrorIs(t, err, ErrNotPermitted)

	// anonymous comments cannot be edited afterwards
	_, err = s.UpdateComment(context.Background(), anonymous.ID, userId, "claimed")
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = s.UpdateComment(context.Background(), uuid.Must(uuid.NewV4()), userId, "ghost")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteComment(t *testing.T) {
	s, db, userId, blogId := setupTestEnvironment(t)

	var comments []*Comment
	for i := 0; i < 3; i++ {
		c, err := s.CreateComment(context.Background(), &CreateCommentRequest{
			BlogID:     blogId,
			UserID:     &userId,
			AuthorName: "testuser",
			Body:       fmt.Sprintf("comment %d", i),
		})
		require.NoError(t, err)
		comments = append(comments, c)
	}

	// deleting the first leaves the others and keeps the counter in step
	err := s.DeleteComment(context.Background(), comments[0].ID, userId)
	assert.NoError(t, err)

	stored, actual := counts(t, db, blogId)
	assert.Equal(t, 2, stored)
	assert.Equal(t, 2, actual)

	remaining, err := s.ListComments(context.Background(), blogId)
	assert.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, comments[1].ID, remaining[0].ID)
	assert.Equal(t, comments[2].ID, remaining[1].ID)

	// a failed delete is a no-op
	err = s.DeleteComment(context.Background(), comments[1].ID, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNotPermitted)

	stored, actual = counts(t, db, blogId)
	assert.Equal(t, 2, stored)
	assert.Equal(t, 2, actual)

	err = s.DeleteComment(context.Background(), uuid.Must(uuid.NewV4()), userId)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestListCommentsOrder(t *testing.T) {
	s, _, _, blogId := setupTestEnvironment(t)

	for i := 0; i < 5; i++ {
		_, err := s.CreateComment(context.Background(), &CreateCommentRequest{
			BlogID:     blogId,
			AuthorName: "visitor",
			Body:       fmt.Sprintf("comment %d", i),
		})
		require.NoError(t, err)
	}

	comments, err := s.ListComments(context.Background(), blogId)
	assert.NoError(t, err)
	require.Len(t, comments, 5)

	// oldest first
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("comment %d", i), comments[i].Body)
	}

	// a blog with no comments yields an empty thread, not an error
	empty, err := s.ListComments(context.Background(), uuid.Must(uuid.NewV4()))
	assert.NoError(t, err)
	assert.Empty(t, empty)
}
