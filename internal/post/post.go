package post

import (
	"slices"
	"strings"
	"time"
)

type MediaKind string

const (
	KindText  MediaKind = "text"
	KindImage MediaKind = "image"
	KindFile  MediaKind = "file"
	KindVideo MediaKind = "video"
)

// CurrentUser is the author name shown on comments not yet confirmed by the server.
const CurrentUser = "You"

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type Comment struct {
	ID        string    `json:"id,omitempty"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Placeholder builds the transient comment appended before the server answers.
func Placeholder(text string) Comment {
	return Comment{Author: Author{Username: CurrentUser}, Text: text}
}

func (c Comment) IsPlaceholder() bool {
	return c.ID == "" && c.Author.ID == "" && c.Author.Username == CurrentUser
}

type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	MediaKind MediaKind `json:"media_kind"`
	MediaRef  string    `json:"media_ref,omitempty"`
	Tags      []string  `json:"tags"`
	Comments  []Comment `json:"comments"`
	Upvotes   []string  `json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Post) LikeCount() int { return len(p.Upvotes) }

func (p Post) UpvotedBy(uid string) bool {
	return uid != "" && slices.Contains(p.Upvotes, uid)
}

func (p Post) HasTag(tag string) bool { return slices.Contains(p.Tags, tag) }

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	out := p
	out.Tags = slices.Clone(p.Tags)
	out.Comments = slices.Clone(p.Comments)
	out.Upvotes = slices.Clone(p.Upvotes)
	return out
}

// NormalizeTags trims tags, drops empty ones and removes duplicates keeping first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

type CreateReq struct {
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content" validate:"required"`
	Tags      []string  `json:"tags" validate:"required,min=1,dive,required"`
	MediaKind MediaKind `json:"media_kind" validate:"required,oneof=text image file video"`
	MediaRef  string    `json:"media_ref" validate:"required_unless=MediaKind text"`

	// ContentType is the upload's MIME type. It picks MediaKind when that is empty.
	ContentType string `json:"content_type,omitempty"`
}
