// Command seed fills a running API with generated posts and interactions so
// the surfaces have something to show. It signs in with API_TOKEN.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"feed-client/configs"
	"feed-client/internal/gateway"
	"feed-client/internal/post"

	"github.com/brianvoe/gofakeit/v6"
)

var tagPool = []string{"go", "design", "devops", "frontend", "career", "data", "security"}

func fakePost() post.CreateReq {
	tags := make([]string, 0, 3)
	for i := gofakeit.Number(1, 3); i > 0; i-- {
		tags = append(tags, gofakeit.RandomString(tagPool))
	}
	return post.CreateReq{
		Title:     gofakeit.Sentence(gofakeit.Number(3, 7)),
		Content:   gofakeit.Paragraph(1, gofakeit.Number(2, 5), 12, " "),
		Tags:      post.NormalizeTags(tags),
		MediaKind: post.KindText,
	}
}

func main() {
	n := flag.Int("posts", 12, "number of posts to create")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg := configs.LoadConfig()
	if cfg.APIToken == "" {
		log.Fatal("API_TOKEN is required")
	}
	gofakeit.Seed(*seed)
	gw := gateway.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.GatewayTimeout)
	ctx := context.Background()

	// 1. Create posts.
	var ids []string
	for i := 0; i < *n; i++ {
		p, err := gw.CreatePost(ctx, fakePost())
		if err != nil {
			log.Printf("create post %d: %v", i, err)
			continue
		}
		ids = append(ids, p.ID)
	}
	log.Printf("created %d/%d posts", len(ids), *n)

	// 2. Like, comment on and bookmark a random share of them.
	for _, id := range ids {
		if gofakeit.Bool() {
			if _, err := gw.ToggleLike(ctx, id); err != nil {
				log.Printf("like %s: %v", id, err)
			}
		}
		if gofakeit.Number(0, 2) == 0 {
			if _, err := gw.AppendComment(ctx, id, gofakeit.Sentence(6)); err != nil {
				log.Printf("comment %s: %v", id, err)
			}
		}
		if gofakeit.Number(0, 3) == 0 {
			if _, err := gw.Bookmark(ctx, id); err != nil {
				log.Printf("bookmark %s: %v", id, err)
			}
		}
	}

	// 3. Read back.
	posts, err := gw.ListPosts(ctx, gateway.ListQuery{Sort: "newest"})
	if err != nil {
		log.Fatalf("list posts: %v", err)
	}
	tags, err := gw.ListTags(ctx)
	if err != nil {
		log.Printf("list tags: %v", err)
	}
	log.Printf("api now has %d posts, tags %v", len(posts), tags)
}
