package post

// Card is a post as seen by one viewer: the server item plus the viewer's
// interaction flags. Likes equals len(Post.Upvotes) except while a like
// toggle is in flight, when it is off by one in the direction of the change.
type Card struct {
	Post       Post `json:"post"`
	Liked      bool `json:"liked"`
	Bookmarked bool `json:"bookmarked"`
	Likes      int  `json:"likes"`
}

func NewCard(p Post, viewerID string, bookmarked bool) Card {
	return Card{
		Post:       p,
		Liked:      p.UpvotedBy(viewerID),
		Bookmarked: bookmarked,
		Likes:      p.LikeCount(),
	}
}

// Reconcile replaces the post with the authoritative one and rederives the like state.
func (c Card) Reconcile(p Post, viewerID string) Card {
	c.Post = p
	c.Liked = p.UpvotedBy(viewerID)
	c.Likes = p.LikeCount()
	return c
}
