// Package mirror remembers which posts the current user liked or bookmarked
// across reloads. It is secondary to the server: a lost or corrupt entry only
// costs the local hint, never an interaction.
package mirror

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sort"
	"sync"
)

type Key string

const (
	Liked      Key = "likedPosts"
	Bookmarked Key = "bookmarkedPosts"
)

// Backend is the raw process-external key/value store behind a Mirror.
type Backend interface {
	Load(ctx context.Context, key string) (val []byte, found bool, err error)
	Save(ctx context.Context, key string, val []byte) error
}

type Mirror interface {
	// Get reads, normalizes and returns the ids stored under key.
	Get(ctx context.Context, key Key) ([]string, error)
	// Set stores ids under key with duplicates removed.
	Set(ctx context.Context, key Key, ids []string) error
	// Normalize rewrites a legacy or corrupt value in canonical list form.
	Normalize(ctx context.Context, key Key) ([]string, error)

	Contains(ctx context.Context, key Key, id string) (bool, error)
	Add(ctx context.Context, key Key, id string) error
	Remove(ctx context.Context, key Key, id string) error
}

type service struct {
	mu sync.Mutex
	b  Backend
}

func New(b Backend) Mirror { return &service{b: b} }

func (s *service) Get(ctx context.Context, key Key) ([]string, error) {
	return s.Normalize(ctx, key)
}

func (s *service) Normalize(ctx context.Context, key Key) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.normalizeLocked(ctx, key)
}

func (s *service) normalizeLocked(ctx context.Context, key Key) ([]string, error) {
	raw, found, err := s.b.Load(ctx, string(key))
	if err != nil {
		return nil, err
	}
	if !found {
		return []string{}, nil
	}
	ids, rewrite := decode(raw)
	if rewrite {
		log.Printf("mirror: rewriting %s in list form (%d ids)", key, len(ids))
		if err := s.saveLocked(ctx, key, ids); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *service) Set(ctx context.Context, key Key, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, key, dedupe(ids))
}

func (s *service) saveLocked(ctx context.Context, key Key, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.b.Save(ctx, string(key), b)
}

func (s *service) Contains(ctx context.Context, key Key, id string) (bool, error) {
	ids, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (s *service) Add(ctx context.Context, key Key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.normalizeLocked(ctx, key)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.saveLocked(ctx, key, append(ids, id))
}

func (s *service) Remove(ctx context.Context, key Key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.normalizeLocked(ctx, key)
	if err != nil {
		return err
	}
	i := slices.Index(ids, id)
	if i < 0 {
		return nil
	}
	return s.saveLocked(ctx, key, slices.Delete(ids, i, i+1))
}

// decode turns a persisted value into a deduplicated id list. rewrite is set
// when the stored form differs from the canonical one: a legacy id->bool
// map, duplicates, non-string entries, or anything unparseable (reset to empty).
func decode(raw []byte) (ids []string, rewrite bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Printf("mirror: malformed value, resetting: %v", err)
		return []string{}, true
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				rewrite = true
				continue
			}
			out = append(out, s)
		}
		deduped := dedupe(out)
		return deduped, rewrite || len(deduped) != len(out)
	case map[string]any:
		out := make([]string, 0, len(t))
		for k, flag := range t {
			if truthy(flag) {
				out = append(out, k)
			}
		}
		sort.Strings(out)
		return out, true
	default:
		log.Printf("mirror: unexpected %T value, resetting", v)
		return []string{}, true
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
