package surface

import (
	"context"
	"sync"

	"feed-client/internal/feed"
	"feed-client/internal/gateway"
	"feed-client/internal/interaction"
	"feed-client/internal/post"
	"feed-client/internal/store"
)

// Registry opens surfaces lazily and keeps them until Close.
type Registry struct {
	gw       gateway.Gateway
	ctrl     *interaction.Controller
	pageSize int

	mu       sync.Mutex
	surfaces map[string]*Surface
}

func NewRegistry(gw gateway.Gateway, ctrl *interaction.Controller, pageSize int) *Registry {
	return &Registry{gw: gw, ctrl: ctrl, pageSize: pageSize, surfaces: map[string]*Surface{}}
}

func (r *Registry) Controller() *interaction.Controller { return r.ctrl }

// Open returns the named surface, loading it the first time it is asked for.
func (r *Registry) Open(ctx context.Context, name string) (*Surface, error) {
	kind, username, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if s, ok := r.surfaces[name]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	var opts []store.Option
	if kind == KindBookmarks {
		opts = append(opts, store.BookmarksOnly())
	}
	st := store.New(opts...)
	crit := feed.Criteria{Sort: feed.SortNewest}
	s := &Surface{
		Name:       name,
		Kind:       kind,
		Username:   username,
		gw:         r.gw,
		ctrl:       r.ctrl,
		store:      st,
		view:       feed.NewView(st, crit, r.pageSize),
		serverSort: crit.Sort,
	}
	if err := s.Load(ctx); err != nil {
		s.close()
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.surfaces[name]; ok {
		s.close()
		return existing, nil
	}
	r.surfaces[name] = s
	return s, nil
}

func (r *Registry) stores() []*store.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.Store, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		out = append(out, s.store)
	}
	return out
}

// Bookmark toggles the bookmark from s and carries the server's answer to
// every other open surface, so none of them calls the wrong endpoint later.
func (r *Registry) Bookmark(ctx context.Context, s *Surface, id string) error {
	return r.ctrl.ToggleBookmark(ctx, s.store, id, r.stores()...)
}

// Delete removes the post from the server and from every open surface.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.ctrl.Delete(ctx, id, r.stores()...)
}

// Create posts req and shows the result at the top of the feed.
func (r *Registry) Create(ctx context.Context, req post.CreateReq) (post.Card, error) {
	s, err := r.Open(ctx, "feed")
	if err != nil {
		return post.Card{}, err
	}
	card, err := r.ctrl.Create(ctx, s.store, req)
	if err != nil {
		return post.Card{}, err
	}
	r.mu.Lock()
	own, ok := r.surfaces["@"+card.Post.Author.Username]
	r.mu.Unlock()
	if ok {
		own.store.Prepend(card)
	}
	return card, nil
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, s := range r.surfaces {
		s.close()
		delete(r.surfaces, name)
	}
}
