package commentservice

import (
	"database/sql"
	"time"

	"github.com/gofrs/uuid"

	"github.com/ktruong/campusblog/internal/common"
)

type Comment struct {
	ID          uuid.UUID  `json:"id"`
	BlogID      uuid.UUID  `json:"blog_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"` // nil for anonymous commenters
	AuthorName  string     `json:"author_name"`
	AuthorEmail string     `json:"author_email"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m  *CommentModel
	mb common.MessageProducer
	c  *common.Cache
}
