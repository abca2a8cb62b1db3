package store

import (
	"testing"

	"feed-client/internal/post"
)

func card(id string, upvotes ...string) post.Card {
	return post.NewCard(post.Post{ID: id, Upvotes: upvotes}, "", false)
}

func ids(cards []post.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Post.ID
	}
	return out
}

func TestUpdateSwapsWithoutTouchingSnapshot(t *testing.T) {
	s := New()
	s.Replace([]post.Card{card("a", "u1"), card("b")})

	before := s.Snapshot()
	_, ok := s.Update("a", func(c post.Card) post.Card {
		c.Post.Upvotes = append(c.Post.Upvotes, "u2")
		c.Likes = len(c.Post.Upvotes)
		return c
	})
	if !ok {
		t.Fatal("update of existing card reported missing")
	}
	if got := len(before[0].Post.Upvotes); got != 1 {
		t.Fatalf("snapshot taken before update changed: %d upvotes", got)
	}
	after, _ := s.Get("a")
	if after.Likes != 2 {
		t.Fatalf("likes = %d, want 2", after.Likes)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	called := false
	if _, ok := s.Update("nope", func(c post.Card) post.Card { called = true; return c }); ok || called {
		t.Fatalf("update of missing card: ok=%v called=%v", ok, called)
	}
}

func TestRemoveExactlyOnce(t *testing.T) {
	s := New()
	s.Replace([]post.Card{card("a"), card("b"), card("c")})
	if !s.Remove("b") {
		t.Fatal("first remove returned false")
	}
	if s.Remove("b") {
		t.Fatal("second remove returned true")
	}
	got := ids(s.Snapshot())
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("remaining = %v", got)
	}
}

func TestPrependReplacesDuplicate(t *testing.T) {
	s := New()
	s.Replace([]post.Card{card("a"), card("b")})
	s.Prepend(card("b", "u1"))
	got := ids(s.Snapshot())
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("order = %v", got)
	}
}

func TestSubscribers(t *testing.T) {
	s := New()
	n := 0
	cancel := s.Subscribe(func() { n++ })
	s.Replace([]post.Card{card("a")})
	s.Update("a", func(c post.Card) post.Card { return c })
	s.Remove("a")
	if n != 3 {
		t.Fatalf("notifications = %d, want 3", n)
	}
	cancel()
	s.Prepend(card("x"))
	if n != 3 {
		t.Fatalf("cancelled subscriber still notified: %d", n)
	}
}

func TestBookmarksOnlyOption(t *testing.T) {
	if New().IsBookmarksOnly() {
		t.Fatal("default store is bookmarks-only")
	}
	if !New(BookmarksOnly()).IsBookmarksOnly() {
		t.Fatal("option not applied")
	}
}
