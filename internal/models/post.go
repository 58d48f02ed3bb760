package models

import "time"

// PostView is a post joined with its author's username.
type PostView struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
}

// CreatePostRequest is the JSON body for POST /api/posts. The author is
// always the session identity; no author field is read from the body.
type CreatePostRequest struct {
	Content string `json:"content"`
}
