package feed

import (
	"strings"
	"sync"

	"feed-client/internal/post"
	"feed-client/internal/store"
)

// View keeps the composed slice of one store current. Any change to the
// store or to the criteria recomputes the whole slice.
type View struct {
	st *store.Store

	mu       sync.Mutex
	crit     Criteria
	pager    *Pager
	composed []post.Card
	unsub    func()
}

func NewView(st *store.Store, crit Criteria, pageSize int) *View {
	v := &View{st: st, crit: crit, pager: NewPager(pageSize)}
	v.recompute()
	v.unsub = st.Subscribe(v.recompute)
	return v
}

func (v *View) recompute() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.compose(false)
}

// compose must be called with v.mu held.
func (v *View) compose(reset bool) {
	v.composed = Compose(v.st.Snapshot(), v.crit)
	if reset {
		v.pager.Reset()
	} else {
		v.pager.Clamp(len(v.composed))
	}
}

func (v *View) Criteria() Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.crit
}

// SetCriteria replaces all criteria and returns to the first page.
func (v *View) SetCriteria(c Criteria) { v.update(func(cur *Criteria) { *cur = c }) }

func (v *View) SetSearch(term string) { v.update(func(c *Criteria) { c.Search = term }) }
func (v *View) SetTag(tag string)     { v.update(func(c *Criteria) { c.Tag = tag }) }
func (v *View) SetSort(s Sort)        { v.update(func(c *Criteria) { c.Sort = s }) }

func (v *View) update(fn func(*Criteria)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.crit)
	v.compose(true)
}

func (v *View) Next() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Next(len(v.composed))
}

// Goto jumps to the 1-based page n, or the last page when n is past the end.
func (v *View) Goto(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pager.Goto(n, len(v.composed))
}

func (v *View) Prev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Prev()
}

func (v *View) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Window(v.composed, strings.TrimSpace(v.crit.Search) != "")
}

// All returns every composed card, ignoring paging.
func (v *View) All() []post.Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]post.Card(nil), v.composed...)
}

func (v *View) Close() {
	if v.unsub != nil {
		v.unsub()
	}
}
