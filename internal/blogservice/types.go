package blogservice

import (
	"database/sql"
	"time"

	"github.com/gofrs/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ktruong/campusblog/internal/commentservice"
	"github.com/ktruong/campusblog/internal/common"
)

type Blog struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	// Content is sanitized HTML produced by the rich-text editor.
	Content       string    `json:"content"`
	BannerKey     string    `json:"-"`
	BannerURL     string    `json:"banner_url"`
	AuthorName    string    `json:"author_name"`
	UserID        uuid.UUID `json:"user_id"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// BlogWithComments is the full aggregate the detail page renders: the blog
// document plus its comment thread.
type BlogWithComments struct {
	Blog
	Comments []commentservice.Comment `json:"comments"`
}

// Metadata describes a paginated listing.
type Metadata struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// blogPage is the cached form of one listing page.
type blogPage struct {
	Blogs []Blog
	Total int
}

// BlobResolver turns a stored object key into a publicly reachable URL.
type BlobResolver interface {
	PublicURL(key string) string
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m        *BlogModel
	c        *common.Cache
	mb       common.MessageProducer
	blobs    BlobResolver
	comments *commentservice.CommentService
	policy   *bluemonday.Policy
}
