// Package surface owns the screens a viewer can open: the main feed, explore,
// a user's profile and their bookmarks. Each surface has its own store and
// view; interactions go through the shared controller.
package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"feed-client/internal/feed"
	"feed-client/internal/gateway"
	"feed-client/internal/interaction"
	"feed-client/internal/post"
	"feed-client/internal/store"
)

type Kind string

const (
	KindFeed      Kind = "feed"
	KindExplore   Kind = "explore"
	KindProfile   Kind = "profile"
	KindBookmarks Kind = "bookmarks"
)

var ErrUnknownSurface = errors.New("unknown surface")

// ParseName maps a surface name to its kind. Profiles are named "@username".
func ParseName(name string) (Kind, string, error) {
	switch name {
	case "feed":
		return KindFeed, "", nil
	case "explore":
		return KindExplore, "", nil
	case "bookmarks":
		return KindBookmarks, "", nil
	}
	if u, ok := strings.CutPrefix(name, "@"); ok && u != "" {
		return KindProfile, u, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownSurface, name)
}

type Surface struct {
	Name     string
	Kind     Kind
	Username string

	gw    gateway.Gateway
	ctrl  *interaction.Controller
	store *store.Store
	view  *feed.View

	mu         sync.Mutex
	serverSort feed.Sort
}

func (s *Surface) Store() *store.Store { return s.store }
func (s *Surface) View() *feed.View    { return s.view }

// Load fetches the surface's posts and replaces its store.
func (s *Surface) Load(ctx context.Context) error {
	s.mu.Lock()
	sort := s.serverSort
	s.mu.Unlock()
	return s.load(ctx, sort)
}

func (s *Surface) load(ctx context.Context, sort feed.Sort) error {
	posts, err := s.fetch(ctx, sort)
	if err != nil {
		return err
	}
	s.store.Replace(s.ctrl.Cards(ctx, posts, s.Kind == KindBookmarks))
	return nil
}

func (s *Surface) fetch(ctx context.Context, sort feed.Sort) ([]post.Post, error) {
	switch s.Kind {
	case KindFeed:
		return s.gw.ListPosts(ctx, gateway.ListQuery{})
	case KindExplore:
		return s.gw.ListPosts(ctx, gateway.ListQuery{Sort: string(sort)})
	case KindProfile:
		return s.gw.ListUserPosts(ctx, s.Username)
	case KindBookmarks:
		return s.gw.ListBookmarks(ctx)
	}
	return nil, ErrUnknownSurface
}

// SetCriteria applies c to the view. Explore asks the server for the new
// order as well, so a sort change there reloads the store. The server order
// is only recorded once that reload succeeds.
func (s *Surface) SetCriteria(ctx context.Context, c feed.Criteria) error {
	s.view.SetCriteria(c)
	if s.Kind != KindExplore {
		return nil
	}
	s.mu.Lock()
	changed := s.serverSort != c.Sort
	s.mu.Unlock()
	if !changed {
		return nil
	}
	if err := s.load(ctx, c.Sort); err != nil {
		return err
	}
	s.mu.Lock()
	s.serverSort = c.Sort
	s.mu.Unlock()
	return nil
}

func (s *Surface) close() { s.view.Close() }
