package media

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestServerResolver(t *testing.T) {
	r := NewServerResolver("http://api.local/")
	cases := map[string]string{
		"":                                  "",
		"uploads/a.png":                     "http://api.local/api/media/uploads/a.png",
		"/uploads/a.png":                    "http://api.local/api/media/uploads/a.png",
		"https://cdn.example.com/x.mp4":     "https://cdn.example.com/x.mp4",
		"http://api.local/api/media/b.pdf":  "http://api.local/api/media/b.pdf",
	}
	for in, want := range cases {
		got, err := r.Resolve(context.Background(), in)
		if err != nil || got != want {
			t.Errorf("%q: got %q err %v, want %q", in, got, err, want)
		}
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"":                           "File",
		"uploads/report.pdf":         "report.pdf",
		"https://x/y/z.docx?sig=abc": "z.docx",
		"/":                          "File",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestS3ResolverPresigns(t *testing.T) {
	r, err := NewS3Resolver(S3Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "media",
		TTL:       time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	got, err := r.Resolve(ctx, "posts/a.png")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "localhost:9000" || !strings.HasSuffix(u.Path, "/media/posts/a.png") {
		t.Fatalf("url %s", got)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Fatalf("unsigned url %s", got)
	}
	if abs, _ := r.Resolve(ctx, "https://cdn/x.png"); abs != "https://cdn/x.png" {
		t.Fatalf("absolute rewritten: %s", abs)
	}
}
