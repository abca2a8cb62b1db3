package feed

import (
	"fmt"

	"feed-client/internal/post"
)

const DefaultPageSize = 5

type Pager struct {
	size  int
	start int
}

func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size}
}

func (p *Pager) Size() int  { return p.size }
func (p *Pager) Start() int { return p.start }

// Next advances one page if the next window starts inside total.
func (p *Pager) Next(total int) bool {
	if p.start+p.size < total {
		p.start += p.size
		return true
	}
	return false
}

func (p *Pager) Prev() bool {
	if p.start == 0 {
		return false
	}
	p.start = max(0, p.start-p.size)
	return true
}

func (p *Pager) Reset() { p.start = 0 }

func (p *Pager) Goto(n, total int) {
	p.start = max(0, n-1) * p.size
	p.Clamp(total)
}

// Clamp moves the window back onto the last page when total shrank under it.
func (p *Pager) Clamp(total int) {
	if p.start < total {
		return
	}
	if total == 0 {
		p.start = 0
		return
	}
	p.start = (total - 1) / p.size * p.size
}

type Page struct {
	Cards        []post.Card `json:"cards"`
	Start        int         `json:"start"`
	End          int         `json:"end"`
	Total        int         `json:"total"`
	HasPrev      bool        `json:"has_prev"`
	HasNext      bool        `json:"has_next"`
	ShowControls bool        `json:"show_controls"`
	Label        string      `json:"label,omitempty"`
}

// Window cuts the page out of composed. While a search is active paging is
// off and every match is returned.
func (p *Pager) Window(composed []post.Card, searching bool) Page {
	total := len(composed)
	if searching {
		return Page{Cards: composed, Start: 0, End: total, Total: total}
	}
	end := min(p.start+p.size, total)
	pg := Page{
		Cards:        composed[p.start:end],
		Start:        p.start,
		End:          end,
		Total:        total,
		HasPrev:      p.start > 0,
		HasNext:      p.start+p.size < total,
		ShowControls: total > p.size,
	}
	if pg.ShowControls {
		pg.Label = fmt.Sprintf("Posts %d-%d of %d", p.start+1, end, total)
	}
	return pg
}
