// Package feed derives what a surface shows from its store: search, tag
// filter, sort order and paging. Nothing here mutates the cards it is given.
package feed

import (
	"slices"
	"strings"

	"feed-client/internal/post"
)

type Sort string

const (
	SortNewest   Sort = "newest"
	SortOldest   Sort = "oldest"
	SortTop      Sort = "top"
	SortTrending Sort = "trending"
)

func (s Sort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortTop, SortTrending:
		return true
	}
	return false
}

type Criteria struct {
	Search string `json:"search"`
	Tag    string `json:"tag"`
	Sort   Sort   `json:"sort"`
}

// Compose returns the cards matching c in display order. The result is a new
// slice; cards is left as it was. Equal keys keep their input order. An
// unknown sort mode keeps input order entirely.
func Compose(cards []post.Card, c Criteria) []post.Card {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]post.Card, 0, len(cards))
	for _, cd := range cards {
		if term != "" && !matches(cd.Post, term) {
			continue
		}
		if c.Tag != "" && !cd.Post.HasTag(c.Tag) {
			continue
		}
		out = append(out, cd)
	}
	if cmp := comparator(c.Sort); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

func matches(p post.Post, term string) bool {
	if strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term) ||
		strings.Contains(strings.ToLower(p.Author.Username), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func comparator(s Sort) func(a, b post.Card) int {
	switch s {
	case SortNewest:
		return func(a, b post.Card) int { return b.Post.CreatedAt.Compare(a.Post.CreatedAt) }
	case SortOldest:
		return func(a, b post.Card) int { return a.Post.CreatedAt.Compare(b.Post.CreatedAt) }
	case SortTop, SortTrending:
		return func(a, b post.Card) int { return b.Post.LikeCount() - a.Post.LikeCount() }
	}
	return nil
}

// TotalLikes sums the upvotes across cards, as shown on a profile.
func TotalLikes(cards []post.Card) int {
	n := 0
	for _, c := range cards {
		n += c.Post.LikeCount()
	}
	return n
}
