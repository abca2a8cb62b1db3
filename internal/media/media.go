// Package media turns the media references stored on posts into URLs a
// renderer can fetch.
package media

import (
	"context"
	"path"
	"strings"
)

type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ServerResolver serves relative references from the API's media route.
type ServerResolver struct {
	prefix string
}

func NewServerResolver(serverURL string) *ServerResolver {
	return &ServerResolver{prefix: strings.TrimRight(serverURL, "/") + "/api/media/"}
}

func (r *ServerResolver) Resolve(_ context.Context, ref string) (string, error) {
	if ref == "" || IsAbsolute(ref) || strings.HasPrefix(ref, r.prefix) {
		return ref, nil
	}
	return r.prefix + strings.TrimLeft(ref, "/"), nil
}

func IsAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// FileName is the label shown for file attachments.
func FileName(ref string) string {
	if ref == "" {
		return "File"
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == "" {
		return "File"
	}
	return name
}
