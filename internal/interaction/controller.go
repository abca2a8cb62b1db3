// Package interaction applies the viewer's likes, bookmarks, comments and
// deletes to the cards of a store. Likes and comments change the card before
// the server answers and are rolled back on failure; bookmarks change only
// once the server has said what the new flag is.
package interaction

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"feed-client/internal/gateway"
	"feed-client/internal/identity"
	"feed-client/internal/mirror"
	"feed-client/internal/post"
	"feed-client/internal/shared/validate"
	"feed-client/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrBusy means the same action is already in flight for the post. The
	// call was dropped; callers should ignore it rather than report it.
	ErrBusy            = errors.New("interaction already in flight")
	ErrMissingIdentity = errors.New("no current user")
	ErrNotFound        = errors.New("post not in store")
	ErrEmptyComment    = errors.New("empty comment")
)

const (
	msgBookmarkFailed = "Failed to update bookmark. Please try again."
	msgCommentFailed  = "Could not add comment. Please try again."
	msgDeleteFailed   = "Failed to delete post. Please try again."
	msgCreateFailed   = "Failed to create post. Please try again."
	msgDeleted        = "Post deleted successfully!"
)

type Action string

const (
	ActLike     Action = "like"
	ActBookmark Action = "bookmark"
	ActComment  Action = "comment"
	ActDelete   Action = "delete"
	ActCreate   Action = "create"
)

// Alerter shows a blocking notification to the user.
type Alerter interface {
	Alert(msg string)
}

type nopAlerter struct{}

func (nopAlerter) Alert(string) {}

type flightKey struct {
	postID string
	action Action
}

type Controller struct {
	gw     gateway.Gateway
	mirror mirror.Mirror
	ident  identity.Source
	alert  Alerter
	pub    Publisher
	tracer trace.Tracer
	now    func() time.Time

	mu       sync.Mutex
	inflight map[flightKey]struct{}
}

type Option func(*Controller)

func WithAlerter(a Alerter) Option     { return func(c *Controller) { c.alert = a } }
func WithPublisher(p Publisher) Option { return func(c *Controller) { c.pub = p } }

func NewController(gw gateway.Gateway, m mirror.Mirror, ident identity.Source, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		mirror:   m,
		ident:    ident,
		alert:    nopAlerter{},
		pub:      nopPublisher{},
		tracer:   otel.Tracer("feed-client/interaction"),
		now:      time.Now,
		inflight: map[flightKey]struct{}{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) acquire(id string, a Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := flightKey{id, a}
	if _, busy := c.inflight[k]; busy {
		return false
	}
	c.inflight[k] = struct{}{}
	return true
}

func (c *Controller) release(id string, a Action) {
	c.mu.Lock()
	delete(c.inflight, flightKey{id, a})
	c.mu.Unlock()
}

// InFlight reports whether action a is outstanding for the post.
func (c *Controller) InFlight(id string, a Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[flightKey{id, a}]
	return ok
}

func (c *Controller) viewer() string {
	u, _ := c.ident.Current()
	return u.ID
}

func (c *Controller) start(ctx context.Context, a Action, id string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "interaction."+string(a), trace.WithAttributes(
		attribute.String("post.id", id),
	))
}

func finish(span trace.Span, a Action, err error) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, ErrBusy):
		outcome = outcomeBusy
	case errors.Is(err, ErrMissingIdentity), errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptyComment):
		outcome = outcomeSkipped
	case err != nil:
		outcome = outcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	mutations.WithLabelValues(string(a), outcome).Inc()
	span.SetAttributes(attribute.String("outcome", outcome))
	span.End()
}

// ToggleLike flips the viewer's like on the card right away and asks the
// server to toggle it. The server's post replaces the card on success; on
// failure the flag and count go back to what they were.
func (c *Controller) ToggleLike(ctx context.Context, st *store.Store, id string) (err error) {
	ctx, span := c.start(ctx, ActLike, id)
	defer func() { finish(span, ActLike, err) }()

	user, ok := c.ident.Current()
	if !ok {
		return ErrMissingIdentity
	}
	if !c.acquire(id, ActLike) {
		return ErrBusy
	}
	defer c.release(id, ActLike)

	if _, ok := st.Update(id, func(cd post.Card) post.Card {
		cd.Liked = !cd.Liked
		if cd.Liked {
			cd.Likes++
		} else {
			cd.Likes--
		}
		return cd
	}); !ok {
		return ErrNotFound
	}

	p, err := c.gw.ToggleLike(ctx, id)
	if err != nil {
		// The optimistic step leaves Upvotes alone, so deriving from the post
		// restores the pre-click state, or the state of a post reloaded since.
		st.Update(id, func(cd post.Card) post.Card {
			cd.Liked = cd.Post.UpvotedBy(user.ID)
			cd.Likes = cd.Post.LikeCount()
			return cd
		})
		log.Printf("interaction: like %s failed, reverted: %v", id, err)
		return err
	}

	after, _ := st.Update(id, func(cd post.Card) post.Card { return cd.Reconcile(p, user.ID) })
	liked := p.UpvotedBy(user.ID)
	c.mark(ctx, mirror.Liked, id, liked)
	c.publish(ctx, Event{Type: EventLike, PostID: id, UserID: user.ID, Value: liked, Count: after.Likes})
	return nil
}

// ToggleBookmark calls bookmark or unbookmark depending on the flag the card
// in st carries when the call starts, then adopts the flag the server returns
// in st and in every store of others. Bookmarks-only stores drop the card once
// it is unbookmarked and gain it once it is bookmarked.
func (c *Controller) ToggleBookmark(ctx context.Context, st *store.Store, id string, others ...*store.Store) (err error) {
	ctx, span := c.start(ctx, ActBookmark, id)
	defer func() { finish(span, ActBookmark, err) }()

	if !c.acquire(id, ActBookmark) {
		return ErrBusy
	}
	defer c.release(id, ActBookmark)

	cur, ok := st.Get(id)
	if !ok {
		return ErrNotFound
	}
	call := c.gw.Bookmark
	if cur.Bookmarked {
		call = c.gw.Unbookmark
	}
	on, err := call(ctx, id)
	if err != nil {
		log.Printf("interaction: bookmark %s failed: %v", id, err)
		c.alert.Alert(msgBookmarkFailed)
		return err
	}

	flag := func(cd post.Card) post.Card {
		cd.Bookmarked = on
		return cd
	}
	card, found := st.Update(id, flag)
	c.mark(ctx, mirror.Bookmarked, id, on)
	for _, o := range append([]*store.Store{st}, others...) {
		if o != st {
			if _, ok := o.Update(id, flag); !ok && on && found && o.IsBookmarksOnly() {
				o.Prepend(card)
			}
		}
		if !on && o.IsBookmarksOnly() {
			o.Remove(id)
		}
	}
	c.publish(ctx, Event{Type: EventBookmark, PostID: id, UserID: c.viewer(), Value: on})
	return nil
}

// AddComment shows text as a placeholder comment until the server returns
// the post's full comment list, which then replaces the local one. Only one
// comment per post may be outstanding.
func (c *Controller) AddComment(ctx context.Context, st *store.Store, id, text string) (err error) {
	ctx, span := c.start(ctx, ActComment, id)
	defer func() { finish(span, ActComment, err) }()

	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	if !c.acquire(id, ActComment) {
		return ErrBusy
	}
	defer c.release(id, ActComment)

	if _, ok := st.Update(id, func(cd post.Card) post.Card {
		cd.Post.Comments = append(cd.Post.Comments, post.Placeholder(text))
		return cd
	}); !ok {
		return ErrNotFound
	}

	list, err := c.gw.AppendComment(ctx, id, text)
	if err != nil {
		st.Update(id, func(cd post.Card) post.Card {
			cd.Post.Comments = dropLastPlaceholder(cd.Post.Comments)
			return cd
		})
		log.Printf("interaction: comment on %s failed: %v", id, err)
		c.alert.Alert(msgCommentFailed)
		return err
	}
	st.Update(id, func(cd post.Card) post.Card {
		cd.Post.Comments = list
		return cd
	})
	c.publish(ctx, Event{Type: EventComment, PostID: id, UserID: c.viewer(), Count: len(list)})
	return nil
}

func dropLastPlaceholder(comments []post.Comment) []post.Comment {
	for i := len(comments) - 1; i >= 0; i-- {
		if comments[i].IsPlaceholder() {
			return append(comments[:i:i], comments[i+1:]...)
		}
	}
	return comments
}

// Delete removes the post on the server and then from every given store, and
// tells the user it is gone.
func (c *Controller) Delete(ctx context.Context, id string, stores ...*store.Store) (err error) {
	ctx, span := c.start(ctx, ActDelete, id)
	defer func() { finish(span, ActDelete, err) }()

	if !c.acquire(id, ActDelete) {
		return ErrBusy
	}
	defer c.release(id, ActDelete)

	if err := c.gw.DeletePost(ctx, id); err != nil {
		log.Printf("interaction: delete %s failed: %v", id, err)
		c.alert.Alert(msgDeleteFailed)
		return err
	}
	for _, st := range stores {
		st.Remove(id)
	}
	for _, k := range []mirror.Key{mirror.Liked, mirror.Bookmarked} {
		if err := c.mirror.Remove(ctx, k, id); err != nil {
			log.Printf("interaction: mirror %s: %v", k, err)
		}
	}
	c.alert.Alert(msgDeleted)
	c.publish(ctx, Event{Type: EventDelete, PostID: id, UserID: c.viewer()})
	return nil
}

// Create validates req, sends it and puts the new post at the front of st.
// A request that fails validation is returned as is, without an alert.
func (c *Controller) Create(ctx context.Context, st *store.Store, req post.CreateReq) (card post.Card, err error) {
	ctx, span := c.start(ctx, ActCreate, "")
	defer func() { finish(span, ActCreate, err) }()

	req.Tags = post.NormalizeTags(req.Tags)
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.MediaKind == "" {
		req.MediaKind = post.KindFromContentType(req.ContentType)
	}
	if err := validate.Struct(req); err != nil {
		return post.Card{}, err
	}
	p, err := c.gw.CreatePost(ctx, req)
	if err != nil {
		log.Printf("interaction: create failed: %v", err)
		c.alert.Alert(msgCreateFailed)
		return post.Card{}, err
	}
	card = post.NewCard(p, c.viewer(), false)
	if st != nil {
		st.Prepend(card)
	}
	c.publish(ctx, Event{Type: EventCreate, PostID: p.ID, UserID: c.viewer()})
	return card, nil
}

// Cards builds the viewer's cards for freshly fetched posts. Bookmark flags
// come from the mirror, unless allBookmarked is set: then the posts are the
// server's bookmark list and the mirror is brought in line with it.
func (c *Controller) Cards(ctx context.Context, posts []post.Post, allBookmarked bool) []post.Card {
	uid := c.viewer()
	marked := map[string]bool{}
	if allBookmarked {
		ids := make([]string, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		if err := c.mirror.Set(ctx, mirror.Bookmarked, ids); err != nil {
			log.Printf("interaction: mirror %s: %v", mirror.Bookmarked, err)
		}
	} else {
		ids, err := c.mirror.Get(ctx, mirror.Bookmarked)
		if err != nil {
			log.Printf("interaction: mirror %s: %v", mirror.Bookmarked, err)
		}
		for _, id := range ids {
			marked[id] = true
		}
	}
	out := make([]post.Card, 0, len(posts))
	for _, p := range posts {
		out = append(out, post.NewCard(p, uid, allBookmarked || marked[p.ID]))
	}
	return out
}

// mark records the server-confirmed flag. Mirror failures only cost the
// local hint, so they are logged and not returned.
func (c *Controller) mark(ctx context.Context, key mirror.Key, id string, on bool) {
	var err error
	if on {
		err = c.mirror.Add(ctx, key, id)
	} else {
		err = c.mirror.Remove(ctx, key, id)
	}
	if err != nil {
		log.Printf("interaction: mirror %s: %v", key, err)
	}
}

func (c *Controller) publish(ctx context.Context, e Event) {
	e.At = c.now()
	if err := c.pub.Publish(ctx, e); err != nil {
		log.Printf("interaction: publish %s %s: %v", e.Type, e.PostID, err)
	}
}
