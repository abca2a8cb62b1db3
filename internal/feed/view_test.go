package feed

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"feed-client/internal/post"
	"feed-client/internal/store"
)

func fill(n int) []post.Card {
	out := make([]post.Card, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, card(fmt.Sprintf("p%02d", i), 0, time.Duration(i)*time.Minute))
	}
	return out
}

func TestPagerBounds(t *testing.T) {
	p := NewPager(5)
	if p.Prev() || p.Start() != 0 {
		t.Fatal("prev moved from zero")
	}
	if !p.Next(12) || p.Start() != 5 {
		t.Fatalf("start=%d", p.Start())
	}
	if !p.Next(12) || p.Start() != 10 {
		t.Fatalf("start=%d", p.Start())
	}
	if p.Next(12) || p.Start() != 10 {
		t.Fatalf("next past end: start=%d", p.Start())
	}
	p.Clamp(7)
	if p.Start() != 5 {
		t.Fatalf("clamp start=%d", p.Start())
	}
	p.Clamp(0)
	if p.Start() != 0 {
		t.Fatalf("clamp empty start=%d", p.Start())
	}
	if NewPager(0).Size() != DefaultPageSize {
		t.Fatal("default size")
	}
}

func TestViewPagesAndLabel(t *testing.T) {
	st := store.New()
	st.Replace(fill(12))
	v := NewView(st, Criteria{Sort: SortNewest}, 5)
	defer v.Close()

	pg := v.Page()
	if pg.Label != "Posts 1-5 of 12" || pg.HasPrev || !pg.HasNext || !pg.ShowControls || len(pg.Cards) != 5 {
		t.Fatalf("page1 %+v", pg)
	}
	v.Next()
	v.Next()
	pg = v.Page()
	if pg.Label != "Posts 11-12 of 12" || !pg.HasPrev || pg.HasNext || len(pg.Cards) != 2 {
		t.Fatalf("page3 %+v", pg)
	}
}

func TestCriteriaChangeResetsPage(t *testing.T) {
	st := store.New()
	st.Replace(fill(12))
	v := NewView(st, Criteria{}, 5)
	defer v.Close()
	v.Next()
	v.SetSort(SortOldest)
	if pg := v.Page(); pg.Start != 0 || pg.Cards[0].Post.ID != "p11" {
		t.Fatalf("page %+v", pg)
	}
	v.Next()
	v.SetTag("")
	if v.Page().Start != 0 {
		t.Fatal("tag change kept page")
	}
}

func TestSearchHidesPager(t *testing.T) {
	st := store.New()
	st.Replace(fill(12))
	v := NewView(st, Criteria{}, 5)
	defer v.Close()
	v.SetSearch("content")
	pg := v.Page()
	if pg.ShowControls || pg.Label != "" || len(pg.Cards) != 12 {
		t.Fatalf("page %+v", pg)
	}
}

func TestViewFollowsStore(t *testing.T) {
	st := store.New()
	st.Replace(fill(6))
	v := NewView(st, Criteria{Sort: SortNewest}, 5)
	defer v.Close()
	v.Next()
	if got := ids(v.Page().Cards); !slices.Equal(got, []string{"p05"}) {
		t.Fatalf("page2 %v", got)
	}

	// deleting the only card on page two falls back to the last page
	st.Remove("p05")
	pg := v.Page()
	if pg.Start != 0 || len(pg.Cards) != 5 {
		t.Fatalf("after remove %+v", pg)
	}
	for _, c := range v.All() {
		if c.Post.ID == "p05" {
			t.Fatal("removed card still composed")
		}
	}

	st.Update("p03", func(c post.Card) post.Card {
		c.Post.Upvotes = append(c.Post.Upvotes, "z")
		return c
	})
	v.SetSort(SortTop)
	if first := v.Page().Cards[0].Post.ID; first != "p03" {
		t.Fatalf("first=%s", first)
	}
}

func TestCloseStopsUpdates(t *testing.T) {
	st := store.New()
	st.Replace(fill(3))
	v := NewView(st, Criteria{}, 5)
	v.Close()
	st.Replace(fill(1))
	if n := len(v.All()); n != 3 {
		t.Fatalf("n=%d", n)
	}
}

func TestPagerGoto(t *testing.T) {
	p := NewPager(5)
	p.Goto(2, 12)
	if p.Start() != 5 {
		t.Fatalf("start=%d", p.Start())
	}
	p.Goto(9, 12)
	if p.Start() != 10 {
		t.Fatalf("past end start=%d", p.Start())
	}
	p.Goto(0, 12)
	if p.Start() != 0 {
		t.Fatalf("page zero start=%d", p.Start())
	}
}

func TestConcurrentCriteriaUpdatesAllApply(t *testing.T) {
	st := store.New()
	st.Replace(fill(3))
	v := NewView(st, Criteria{Sort: SortNewest}, 5)
	defer v.Close()

	for i := 0; i < 200; i++ {
		v.SetCriteria(Criteria{Sort: SortNewest})
		var wg sync.WaitGroup
		wg.Add(3)
		go func() { defer wg.Done(); v.SetSearch("p0") }()
		go func() { defer wg.Done(); v.SetTag("go") }()
		go func() { defer wg.Done(); v.SetSort(SortTop) }()
		wg.Wait()
		if c := v.Criteria(); c != (Criteria{Search: "p0", Tag: "go", Sort: SortTop}) {
			t.Fatalf("round %d: criteria=%+v", i, c)
		}
	}
}
