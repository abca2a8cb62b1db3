// Package gateway is the client side of the remote post API. Every response
// is validated and converted to internal/post types before it leaves this
// package; a payload that does not fit fails with MalformedResponseError.
package gateway

import (
	"context"
	"fmt"

	"feed-client/internal/identity"
	"feed-client/internal/post"
)

type ListQuery struct {
	Sort string // newest | oldest | top | trending, empty for server default
	Tag  string
}

type Gateway interface {
	ToggleLike(ctx context.Context, postID string) (post.Post, error)
	Bookmark(ctx context.Context, postID string) (bool, error)
	Unbookmark(ctx context.Context, postID string) (bool, error)
	AppendComment(ctx context.Context, postID, text string) ([]post.Comment, error)

	ListPosts(ctx context.Context, q ListQuery) ([]post.Post, error)
	ListUserPosts(ctx context.Context, username string) ([]post.Post, error)
	ListBookmarks(ctx context.Context) ([]post.Post, error)
	ListTags(ctx context.Context) ([]string, error)

	CreatePost(ctx context.Context, req post.CreateReq) (post.Post, error)
	DeletePost(ctx context.Context, postID string) error
	CurrentUser(ctx context.Context) (identity.User, error)
}

// NetworkError is a call that failed in transport or came back non-2xx.
type NetworkError struct {
	Op     string
	Status int // 0 when no response arrived
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("gateway %s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
