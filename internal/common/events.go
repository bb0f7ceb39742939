package common

import "encoding/json"

// Blog mutation actions carried by BlogEvent.
const (
	BlogActionCreated        = "blog.created"
	BlogActionUpdated        = "blog.updated"
	BlogActionDeleted        = "blog.deleted"
	BlogActionLiked          = "blog.liked"
	BlogActionCommentAdded   = "comment.added"
	BlogActionCommentDeleted = "comment.deleted"
)

// BlogEvent is published to BlogExchange whenever a blog aggregate changes.
// OwnerID lets dashboard subscribers filter for their own blogs.
type BlogEvent struct {
	BlogID  string `json:"blog_id"`
	OwnerID string `json:"owner_id"`
	Action  string `json:"action"`
}

func (e BlogEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
