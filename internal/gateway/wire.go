package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"feed-client/internal/identity"
	"feed-client/internal/post"
	"feed-client/internal/shared/validate"
)

type wireAuthor struct {
	ID       string `json:"_id"`
	Username string `json:"username" validate:"required"`
	Avatar   string `json:"avatar"`
}

type wireComment struct {
	ID        string      `json:"_id"`
	Author    *wireAuthor `json:"author" validate:"required"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
}

type wirePost struct {
	ID        string        `json:"_id" validate:"required"`
	Author    *wireAuthor   `json:"author" validate:"required"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	MediaType string        `json:"mediaType" validate:"omitempty,oneof=text image file video"`
	MediaURL  string        `json:"mediaUrl"`
	Tags      []string      `json:"tags"`
	Comments  []wireComment `json:"comments" validate:"dive"`
	Upvotes   []string      `json:"upvotes"`
	CreatedAt time.Time     `json:"createdAt" validate:"required"`
}

type wirePostList struct {
	Posts []wirePost `json:"posts" validate:"dive"`
}

type wireBookmark struct {
	Bookmarked *bool `json:"bookmarked" validate:"required"`
}

type wireUser struct {
	ID       string `json:"id"`
	OID      string `json:"_id"`
	Username string `json:"username" validate:"required"`
}

func (a *wireAuthor) toAuthor() post.Author {
	return post.Author{ID: a.ID, Username: a.Username, Avatar: a.Avatar}
}

func (c wireComment) toComment() post.Comment {
	return post.Comment{ID: c.ID, Author: c.Author.toAuthor(), Text: c.Text, CreatedAt: c.CreatedAt}
}

func (w wirePost) toPost() post.Post {
	kind := post.MediaKind(w.MediaType)
	if kind == "" {
		kind = post.KindText
	}
	return post.Post{
		ID:        w.ID,
		Author:    w.Author.toAuthor(),
		Title:     w.Title,
		Content:   w.Content,
		MediaKind: kind,
		MediaRef:  w.MediaURL,
		Tags:      post.NormalizeTags(w.Tags),
		Comments:  toComments(w.Comments),
		Upvotes:   dedupe(w.Upvotes),
		CreatedAt: w.CreatedAt,
	}
}

func (u wireUser) toUser() identity.User {
	id := u.ID
	if id == "" {
		id = u.OID
	}
	return identity.User{ID: id, Username: u.Username}
}

func toComments(in []wireComment) []post.Comment {
	out := make([]post.Comment, 0, len(in))
	for _, c := range in {
		out = append(out, c.toComment())
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// decodeChecked unmarshals body into dst and runs struct validation. For
// slices each element is validated on its own so one bad item names its index.
func decodeChecked(op string, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	if err := check(dst); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}

func check(dst any) error {
	switch v := dst.(type) {
	case *[]wirePost:
		for i := range *v {
			if err := validate.Struct((*v)[i]); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case *[]wireComment:
		for i := range *v {
			if err := validate.Struct((*v)[i]); err != nil {
				return fmt.Errorf("comment %d: %w", i, err)
			}
		}
		return nil
	case *[]string:
		return nil
	default:
		return validate.Struct(dst)
	}
}

// decodePosts accepts either {"posts": [...]} or a bare array: list
// endpoints on the server are not consistent about the envelope.
func decodePosts(op string, body []byte) ([]post.Post, error) {
	var items []wirePost
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		if err := decodeChecked(op, body, &items); err != nil {
			return nil, err
		}
	} else {
		var env wirePostList
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, &MalformedResponseError{Op: op, Err: err}
		}
		items = env.Posts
		if err := check(&items); err != nil {
			return nil, &MalformedResponseError{Op: op, Err: err}
		}
	}
	out := make([]post.Post, 0, len(items))
	for _, w := range items {
		out = append(out, w.toPost())
	}
	return out, nil
}
