package interaction

import (
	"context"
	"time"

	"feed-client/internal/kafka"
)

type EventType string

const (
	EventLike     EventType = "post.liked"
	EventBookmark EventType = "post.bookmarked"
	EventComment  EventType = "post.commented"
	EventDelete   EventType = "post.deleted"
	EventCreate   EventType = "post.created"
)

// Event records an interaction after the server confirmed it.
type Event struct {
	Type   EventType `json:"type"`
	PostID string    `json:"post_id"`
	UserID string    `json:"user_id,omitempty"`
	Value  bool      `json:"value"`
	Count  int       `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type kafkaPublisher struct {
	w kafka.Writer
}

// NewKafkaPublisher publishes events keyed by post id.
func NewKafkaPublisher(w kafka.Writer) Publisher { return &kafkaPublisher{w: w} }

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	return p.w.WriteJSON(ctx, e.PostID, e)
}
