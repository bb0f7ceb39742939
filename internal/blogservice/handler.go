package blogservice

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid"

	"github.com/ktruong/campusblog/internal/commentservice"
	"github.com/ktruong/campusblog/internal/common"
)

func NewBlogService(db *sql.DB, c *common.Cache, mb common.MessageProducer, blobs BlobResolver, comments *commentservice.CommentService) *BlogService {
	return &BlogService{
		m:        newBlogModel(db),
		c:        c,
		mb:       mb,
		blobs:    blobs,
		comments: comments,
		policy:   newContentPolicy(),
	}
}

type CreateBlogRequest struct {
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	BannerKey  string    `json:"banner_key"`
	AuthorName string    `json:"author_name"`
	UserID     uuid.UUID `json:"user_id"`
}

// CreateBlog publishes a new blog post. Title, content, banner and author name
// are all required; the content HTML is sanitized before it is stored.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateAuthorName(v, req.AuthorName)
	validateBannerKey(v, req.BannerKey)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	b := &Blog{
		Title:      req.Title,
		Content:    sanitizeContent(s.policy, req.Content),
		BannerKey:  req.BannerKey,
		AuthorName: req.AuthorName,
		UserID:     req.UserID,
	}

	err := s.m.insert(ctx, b)
	if err != nil {
		return nil, err
	}

	s.evict(b.ID, b.UserID)
	s.resolveBanner(b)
	s.publish(ctx, b.ID, b.UserID, common.BlogActionCreated)

	return b, nil
}

// GetBlogByID returns a blog post by its ID. Reads go through the cache.
func (s *BlogService) GetBlogByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	key := common.CacheKeyBlog(id.String())
	if cached, ok := s.c.Get(key); ok {
		if b, ok := cached.(*Blog); ok {
			return b, nil
		}
	}

	b, err := s.m.getBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.resolveBanner(b)
	s.c.Set(key, b)

	return b, nil
}

// GetBlogWithComments assembles the full aggregate for the detail page: the
// blog document and its comment thread, oldest comment first. The two reads are
// independent; the counter on the blog always comes from the same transactional
// store as the comment rows, so at quiescence they agree.
func (s *BlogService) GetBlogWithComments(ctx context.Context, id uuid.UUID) (*BlogWithComments, error) {
	b, err := s.GetBlogByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListComments(ctx, id)
	if err != nil {
		return nil, err
	}

	return &BlogWithComments{Blog: *b, Comments: comments}, nil
}

// GetBlogs returns one page of blogs plus pagination metadata. Default limit is
// 10 and default offset is 0. Pages are cached per (limit, offset) and every
// blog mutation drops the whole set of cached pages.
func (s *BlogService) GetBlogs(ctx context.Context, limit, offset *int) ([]Blog, Metadata, error) {
	normalizePage(limit, offset)

	key := common.CacheKeyBlogs(*limit, *offset)
	if cached, ok := s.c.Get(key); ok {
		if page, ok := cached.(blogPage); ok {
			return page.Blogs, Metadata{Total: page.Total, Limit: *limit, Offset: *offset}, nil
		}
	}

	blogs, total, err := s.m.getBlogs(ctx, *limit, *offset)
	if err != nil {
		return nil, Metadata{}, err
	}

	s.resolveBanners(blogs)
	s.c.Set(key, blogPage{Blogs: blogs, Total: total})

	return blogs, Metadata{Total: total, Limit: *limit, Offset: *offset}, nil
}

func (s *BlogService) GetBlogsByTitle(ctx context.Context, title string, limit, offset *int) ([]Blog, Metadata, error) {
	v := common.NewValidator()
	validateTitle(v, title)
	if !v.Valid() {
		return nil, Metadata{}, v.ValidationError()
	}

	normalizePage(limit, offset)

	blogs, total, err := s.m.getBlogsByTitle(ctx, title, *limit, *offset)
	if err != nil {
		return nil, Metadata{}, err
	}

	s.resolveBanners(blogs)

	return blogs, Metadata{Total: total, Limit: *limit, Offset: *offset}, nil
}

// GetBlogsByUserID returns all blog posts authored by a user, newest first.
// The dashboard polls this, so the result is cached per author and evicted
// whenever one of their blogs changes.
func (s *BlogService) GetBlogsByUserID(ctx context.Context, userID uuid.UUID) ([]Blog, error) {
	key := common.CacheKeyBlogsByUser(userID.String())
	if cached, ok := s.c.Get(key); ok {
		if blogs, ok := cached.([]Blog); ok {
			return blogs, nil
		}
	}

	blogs, err := s.m.getBlogsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.resolveBanners(blogs)
	s.c.Set(key, blogs)

	return blogs, nil
}

type UpdateBlogRequest struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	BannerKey string    `json:"banner_key"`
	UserID    uuid.UUID `json:"user_id"`
	Version   int       `json:"version"`
}

// UpdateBlog edits a blog post. Only the author may edit; the version field
// guards against concurrent edits (last submit on a stale version gets
// ErrEditConflict rather than silently clobbering).
func (s *BlogService) UpdateBlog(ctx context.Context, req *UpdateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	current, err := s.m.getBlogByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if current.UserID != req.UserID {
		return nil, ErrNotPermitted
	}

	b := &Blog{
		ID:         req.ID,
		Title:      req.Title,
		Content:    sanitizeContent(s.policy, req.Content),
		BannerKey:  current.BannerKey,
		AuthorName: current.AuthorName,
		UserID:     req.UserID,
		Version:    req.Version,
	}

	if req.BannerKey != "" {
		b.BannerKey = req.BannerKey
	}

	err = s.m.updateBlog(ctx, b)
	if err != nil {
		return nil, err
	}

	s.evict(b.ID, b.UserID)
	s.resolveBanner(b)
	s.publish(ctx, b.ID, b.UserID, common.BlogActionUpdated)

	return b, nil
}

// DeleteBlog deletes a blog post and, via the cascade, its comments. Only the
// author may delete.
func (s *BlogService) DeleteBlog(ctx context.Context, blogID, callerID uuid.UUID) error {
	current, err := s.m.getBlogByID(ctx, blogID)
	if err != nil {
		return err
	}

	if current.UserID != callerID {
		return ErrNotPermitted
	}

	err = s.m.deleteBlog(ctx, blogID, callerID)
	if err != nil {
		return err
	}

	s.evict(blogID, callerID)
	s.publish(ctx, blogID, callerID, common.BlogActionDeleted)

	return nil
}

// LikeBlog increments the blog's like counter. The increment is atomic in the
// store, so concurrent likes all land. Likes are deliberately not idempotent
// per user; nothing ties a like to an identity.
func (s *BlogService) LikeBlog(ctx context.Context, blogID uuid.UUID) (int, error) {
	count, ownerID, err := s.m.incrementLikes(ctx, blogID)
	if err != nil {
		return 0, err
	}

	s.evict(blogID, ownerID)
	s.publish(ctx, blogID, ownerID, common.BlogActionLiked)

	return count, nil
}

// CheckCounterDrift recounts the blog's comments and compares the result
// against the stored comments_count. Returns ErrCounterDrift on mismatch.
func (s *BlogService) CheckCounterDrift(ctx context.Context, blogID uuid.UUID) (stored int, actual int, err error) {
	stored, actual, err = s.m.getCounts(ctx, blogID)
	if err != nil {
		return 0, 0, err
	}

	if stored != actual {
		return stored, actual, ErrCounterDrift
	}

	return stored, actual, nil
}

func normalizePage(limit, offset *int) {
	if *limit < 1 {
		*limit = 10
	}

	if *offset < 0 {
		*offset = 0
	}
}

func (s *BlogService) resolveBanner(b *Blog) {
	if s.blobs != nil && b.BannerKey != "" {
		b.BannerURL = s.blobs.PublicURL(b.BannerKey)
	}
}

func (s *BlogService) resolveBanners(blogs []Blog) {
	for i := range blogs {
		s.resolveBanner(&blogs[i])
	}
}

// evict drops every cache entry a mutation of this blog could have staled: the
// aggregate, the author's dashboard listing, and all paginated listing pages.
func (s *BlogService) evict(id, ownerID uuid.UUID) {
	s.c.Delete(common.CacheKeyBlog(id.String()))
	s.c.Delete(common.CacheKeyBlogsByUser(ownerID.String()))
	s.c.DeletePrefix(common.CacheKeyBlogsPrefix)
}

// publish is best effort; see commentservice.
func (s *BlogService) publish(ctx context.Context, blogID, ownerID uuid.UUID, action string) {
	if s.mb == nil {
		return
	}

	msg, err := common.BlogEvent{BlogID: blogID.String(), OwnerID: ownerID.String(), Action: action}.Marshal()
	if err != nil {
		return
	}

	_ = s.mb.Publish(ctx, msg, common.BlogChangedKey, common.BlogExchange)
}
