package commentservice

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"

	"github.com/ktruong/campusblog/internal/common"
)

func NewCommentService(db *sql.DB, mb common.MessageProducer, c *common.Cache) *CommentService {
	return &CommentService{m: newCommentModel(db), mb: mb, c: c}
}

type CreateCommentRequest struct {
	BlogID      uuid.UUID  `json:"blog_id"`
	UserID      *uuid.UUID `json:"user_id"`
	AuthorName  string     `json:"author_name"`
	AuthorEmail string     `json:"author_email"`
	Body        string     `json:"body"`
}

// CreateComment stores a comment on a blog. Anyone may comment; UserID is nil
// for anonymous visitors. The parent blog's comments_count is incremented in the
// same transaction as the insert.
func (s *CommentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	v := common.NewValidator()
	validateBody(v, req.Body)
	validateAuthorName(v, req.AuthorName)
	validateAuthorEmail(v, req.AuthorEmail)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c := &Comment{
		BlogID:      req.BlogID,
		UserID:      req.UserID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Body:        req.Body,
	}

	ownerID, err := s.m.insert(ctx, c)
	if err != nil {
		return nil, err
	}

	s.evict(c.BlogID, ownerID)
	s.publish(ctx, c.BlogID, ownerID, common.BlogActionCommentAdded)

	return c, nil
}

// UpdateComment replaces the comment body. Only the registered user that wrote
// the comment may edit it; anonymous comments cannot be edited afterwards.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, callerID uuid.UUID, body string) (*Comment, error) {
	v := common.NewValidator()
	validateBody(v, body)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c, err := s.m.getByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if c.UserID == nil || *c.UserID != callerID {
		return nil, ErrNotPermitted
	}

	err = s.m.updateBody(ctx, commentID, body)
	if err != nil {
		return nil, err
	}

	c.Body = body
	return c, nil
}

// DeleteComment removes a comment and decrements the parent blog's
// comments_count transactionally. Authorization mirrors UpdateComment.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error {
	c, err := s.m.getByID(ctx, commentID)
	if err != nil {
		return err
	}

	if c.UserID == nil || *c.UserID != callerID {
		return ErrNotPermitted
	}

	ownerID, err := s.m.delete(ctx, c)
	if err != nil {
		return err
	}

	s.evict(c.BlogID, ownerID)
	s.publish(ctx, c.BlogID, ownerID, common.BlogActionCommentDeleted)

	return nil
}

// ListComments returns a blog's comment thread, oldest first.
func (s *CommentService) ListComments(ctx context.Context, blogID uuid.UUID) ([]Comment, error) {
	return s.m.listByBlog(ctx, blogID)
}

// evict drops the cached blog aggregate and listing entries so the next read
// sees the new counter.
func (s *CommentService) evict(blogID, ownerID uuid.UUID) {
	if s.c != nil {
		s.c.Delete(common.CacheKeyBlog(blogID.String()))
		s.c.Delete(common.CacheKeyBlogsByUser(ownerID.String()))
		s.c.DeletePrefix(common.CacheKeyBlogsPrefix)
	}
}

// publish is best effort: a dropped event only means a stale dashboard, never a
// failed mutation.
func (s *CommentService) publish(ctx context.Context, blogID, ownerID uuid.UUID, action string) {
	if s.mb == nil {
		return
	}

	msg, err := common.BlogEvent{BlogID: blogID.String(), OwnerID: ownerID.String(), Action: action}.Marshal()
	if err != nil {
		return
	}

	_ = s.mb.Publish(ctx, msg, common.BlogChangedKey, common.BlogExchange)
}
