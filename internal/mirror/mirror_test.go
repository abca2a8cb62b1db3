package mirror

import (
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memBackend struct {
	vals  map[string][]byte
	saves int
}

func newMem() *memBackend { return &memBackend{vals: map[string][]byte{}} }

func (m *memBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memBackend) Save(_ context.Context, key string, val []byte) error {
	m.saves++
	m.vals[key] = append([]byte(nil), val...)
	return nil
}

func stored(t *testing.T, m *memBackend, key Key) []string {
	t.Helper()
	var ids []string
	if err := json.Unmarshal(m.vals[string(key)], &ids); err != nil {
		t.Fatalf("stored %s not a list: %v (%s)", key, err, m.vals[string(key)])
	}
	return ids
}

func TestMissingKeyIsEmptyWithoutWrite(t *testing.T) {
	be := newMem()
	ids, err := New(be).Get(context.Background(), Liked)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 || be.saves != 0 {
		t.Fatalf("ids=%v saves=%d", ids, be.saves)
	}
}

func TestLegacyMapIsRewrittenAsList(t *testing.T) {
	be := newMem()
	be.vals[string(Liked)] = []byte(`{"p2":true,"p1":true,"p3":false}`)
	ids, err := New(be).Get(context.Background(), Liked)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{"p1", "p2"}) {
		t.Fatalf("ids=%v", ids)
	}
	if got := stored(t, be, Liked); !slices.Equal(got, []string{"p1", "p2"}) {
		t.Fatalf("stored=%v", got)
	}
}

func TestCorruptValueResets(t *testing.T) {
	for _, raw := range []string{`{not json`, `42`, `"p1"`} {
		be := newMem()
		be.vals[string(Bookmarked)] = []byte(raw)
		ids, err := New(be).Normalize(context.Background(), Bookmarked)
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 0 {
			t.Fatalf("%s: ids=%v", raw, ids)
		}
		if got := stored(t, be, Bookmarked); len(got) != 0 {
			t.Fatalf("%s: stored=%v", raw, got)
		}
	}
}

func TestDuplicatesAndNonStringsDropped(t *testing.T) {
	be := newMem()
	be.vals[string(Liked)] = []byte(`["a",1,"b","a",null]`)
	ids, err := New(be).Get(context.Background(), Liked)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{"a", "b"}) {
		t.Fatalf("ids=%v", ids)
	}
	if be.saves != 1 {
		t.Fatalf("saves=%d", be.saves)
	}
}

func TestCanonicalListNotRewritten(t *testing.T) {
	be := newMem()
	be.vals[string(Liked)] = []byte(`["a","b"]`)
	if _, err := New(be).Get(context.Background(), Liked); err != nil {
		t.Fatal(err)
	}
	if be.saves != 0 {
		t.Fatalf("saves=%d", be.saves)
	}
}

func TestAddRemoveContains(t *testing.T) {
	ctx := context.Background()
	be := newMem()
	m := New(be)
	for _, id := range []string{"x", "y", "x"} {
		if err := m.Add(ctx, Bookmarked, id); err != nil {
			t.Fatal(err)
		}
	}
	if got := stored(t, be, Bookmarked); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("stored=%v", got)
	}
	if ok, _ := m.Contains(ctx, Bookmarked, "y"); !ok {
		t.Fatal("y missing")
	}
	if err := m.Remove(ctx, Bookmarked, "x"); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(ctx, Bookmarked, "nope"); err != nil {
		t.Fatal(err)
	}
	if got := stored(t, be, Bookmarked); !slices.Equal(got, []string{"y"}) {
		t.Fatalf("stored=%v", got)
	}
}

func TestSetDedupes(t *testing.T) {
	be := newMem()
	if err := New(be).Set(context.Background(), Liked, []string{"a", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	if got := stored(t, be, Liked); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("stored=%v", got)
	}
}

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "mirror.json")
	fb, err := NewFileBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := New(fb).Add(ctx, Liked, "p1"); err != nil {
		t.Fatal(err)
	}

	fb2, err := NewFileBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := New(fb2).Contains(ctx, Liked, "p1")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, found, _ := fb2.Load(ctx, string(Bookmarked)); found {
		t.Fatal("bookmarks should be absent")
	}
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mr.Set("feed:likedPosts", `{"p9":true}`)
	m := New(NewRedisBackend(rdb, "feed:"))
	ids, err := m.Get(ctx, Liked)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []string{"p9"}) {
		t.Fatalf("ids=%v", ids)
	}
	raw, _ := mr.Get("feed:likedPosts")
	if raw != `["p9"]` {
		t.Fatalf("raw=%s", raw)
	}
	if ids, _ := m.Get(ctx, Bookmarked); len(ids) != 0 {
		t.Fatalf("bookmarks=%v", ids)
	}
}
