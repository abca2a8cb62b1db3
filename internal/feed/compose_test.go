package feed

import (
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"

	"feed-client/internal/post"

	"github.com/brianvoe/gofakeit/v6"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func card(id string, upvotes int, age time.Duration) post.Card {
	p := post.Post{
		ID:        id,
		Author:    post.Author{Username: "user" + id},
		Content:   "content " + id,
		MediaKind: post.KindText,
		Tags:      []string{},
		Comments:  []post.Comment{},
		CreatedAt: t0.Add(-age),
	}
	for i := 0; i < upvotes; i++ {
		p.Upvotes = append(p.Upvotes, fmt.Sprintf("u%d", i))
	}
	return post.NewCard(p, "", false)
}

func ids(cards []post.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Post.ID)
	}
	return out
}

func TestTopIsStable(t *testing.T) {
	in := []post.Card{card("item0", 3, 0), card("item1", 1, 0), card("item2", 3, 0), card("item3", 0, 0)}
	for _, s := range []Sort{SortTop, SortTrending} {
		got := ids(Compose(in, Criteria{Sort: s}))
		if want := []string{"item0", "item2", "item1", "item3"}; !slices.Equal(got, want) {
			t.Fatalf("%s: got %v want %v", s, got, want)
		}
	}
}

func TestNewestOldest(t *testing.T) {
	in := []post.Card{card("mid", 0, time.Hour), card("new", 0, 0), card("old", 0, 2*time.Hour)}
	if got := ids(Compose(in, Criteria{Sort: SortNewest})); !slices.Equal(got, []string{"new", "mid", "old"}) {
		t.Fatalf("newest %v", got)
	}
	if got := ids(Compose(in, Criteria{Sort: SortOldest})); !slices.Equal(got, []string{"old", "mid", "new"}) {
		t.Fatalf("oldest %v", got)
	}
	if got := ids(Compose(in, Criteria{Sort: "sideways"})); !slices.Equal(got, []string{"mid", "new", "old"}) {
		t.Fatalf("unknown sort %v", got)
	}
}

func TestSearchAndTagAreConjunctive(t *testing.T) {
	a := card("a", 0, 0)
	a.Post.Title = "Learning Go"
	a.Post.Tags = []string{"golang"}
	b := card("b", 0, 0)
	b.Post.Content = "GO generics"
	b.Post.Tags = []string{"rust"}
	c := card("c", 0, 0)
	c.Post.Tags = []string{"Gopher"}
	d := card("d", 0, 0)
	d.Post.Author.Username = "GOLDIE"
	in := []post.Card{a, b, c, d}

	if got := ids(Compose(in, Criteria{Search: "go"})); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("search %v", got)
	}
	if got := ids(Compose(in, Criteria{Search: "go", Tag: "rust"})); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("search+tag %v", got)
	}
	// tag filter is exact membership
	if got := ids(Compose(in, Criteria{Tag: "gopher"})); len(got) != 0 {
		t.Fatalf("tag %v", got)
	}
}

func TestComposeIsPure(t *testing.T) {
	gofakeit.Seed(42)
	in := make([]post.Card, 0, 40)
	for i := 0; i < 40; i++ {
		p := post.Post{
			ID:        gofakeit.UUID(),
			Author:    post.Author{ID: gofakeit.UUID(), Username: gofakeit.Username()},
			Title:     gofakeit.Sentence(4),
			Content:   gofakeit.Paragraph(1, 2, 8, " "),
			MediaKind: post.KindText,
			Tags:      []string{gofakeit.RandomString([]string{"go", "db", "ops", "ui"})},
			Comments:  []post.Comment{},
			CreatedAt: gofakeit.DateRange(t0.AddDate(-1, 0, 0), t0),
		}
		for j := gofakeit.Number(0, 6); j > 0; j-- {
			p.Upvotes = append(p.Upvotes, gofakeit.UUID())
		}
		in = append(in, post.NewCard(p, "", false))
	}
	orig := slices.Clone(in)
	for _, cr := range []Criteria{
		{Sort: SortNewest},
		{Sort: SortTop, Tag: "go"},
		{Sort: SortOldest, Search: "a"},
		{},
	} {
		first := Compose(in, cr)
		second := Compose(in, cr)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%+v: not idempotent", cr)
		}
		if !reflect.DeepEqual(in, orig) {
			t.Fatalf("%+v: input mutated", cr)
		}
	}
}

func TestTotalLikes(t *testing.T) {
	if n := TotalLikes([]post.Card{card("a", 2, 0), card("b", 0, 0), card("c", 5, 0)}); n != 7 {
		t.Fatalf("n=%d", n)
	}
}
