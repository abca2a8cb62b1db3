package store

import (
	"slices"
	"sync"

	"feed-client/internal/post"
)

// Store is the ordered collection of cards owned by one surface.
// Cards are never mutated in place: every change swaps in a new value, so a
// snapshot never observes a half-applied update.
type Store struct {
	mu            sync.RWMutex
	cards         []post.Card
	bookmarksOnly bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func()
}

type Option func(*Store)

// BookmarksOnly marks a store that should drop cards once they are unbookmarked.
func BookmarksOnly() Option { return func(s *Store) { s.bookmarksOnly = true } }

func New(opts ...Option) *Store {
	s := &Store{subs: map[int]func(){}}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) IsBookmarksOnly() bool { return s.bookmarksOnly }

// Subscribe registers fn to run after every change. The returned func removes it.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Replace swaps the whole collection.
func (s *Store) Replace(cards []post.Card) {
	s.mu.Lock()
	s.cards = slices.Clone(cards)
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns the current cards in order. Callers must not modify the
// slices inside the returned posts.
func (s *Store) Snapshot() []post.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cards)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.cards, func(c post.Card) bool { return c.Post.ID == id })
}

func (s *Store) Get(id string) (post.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return post.Card{}, false
	}
	return s.cards[i], true
}

// Update applies fn to the card with the given id and swaps in the result.
// fn receives a card whose slices are private copies.
func (s *Store) Update(id string, fn func(post.Card) post.Card) (post.Card, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return post.Card{}, false
	}
	c := s.cards[i]
	c.Post = c.Post.Clone()
	c = fn(c)
	next := slices.Clone(s.cards)
	next[i] = c
	s.cards = next
	s.mu.Unlock()
	s.notify()
	return c, true
}

// Prepend puts a card at the front, replacing any card with the same id.
func (s *Store) Prepend(c post.Card) {
	s.mu.Lock()
	next := make([]post.Card, 0, len(s.cards)+1)
	next = append(next, c)
	for _, old := range s.cards {
		if old.Post.ID != c.Post.ID {
			next = append(next, old)
		}
	}
	s.cards = next
	s.mu.Unlock()
	s.notify()
}

// Remove drops the card with the given id. It reports whether a card was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.cards = slices.Delete(slices.Clone(s.cards), i, i+1)
	s.mu.Unlock()
	s.notify()
	return true
}
