package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feed-client/internal/identity"
	"feed-client/internal/post"
	"feed-client/internal/shared/validate"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

type Client struct {
	base   string
	hc     *http.Client
	tracer trace.Tracer
	token  string
}

func NewClient(base, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otel.Tracer("feed-client/gateway"),
		token:  token,
	}
}

// do runs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "gateway."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("gateway.path", path))

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 300 {
		err := errors.New(serverMessage(data, resp.Status))
		span.SetStatus(codes.Error, err.Error())
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return data, nil
}

func serverMessage(body []byte, fallback string) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Message != "" {
			return m.Message
		}
		if m.Error != "" {
			return m.Error
		}
	}
	return fallback
}

func postPath(id string, suffix string) string {
	return "/api/posts/" + url.PathEscape(id) + suffix
}

func (c *Client) ToggleLike(ctx context.Context, postID string) (post.Post, error) {
	const op = "toggle_like"
	data, err := c.do(ctx, op, http.MethodPost, postPath(postID, "/upvote"), nil, "")
	if err != nil {
		return post.Post{}, err
	}
	var w wirePost
	if err := decodeChecked(op, data, &w); err != nil {
		return post.Post{}, err
	}
	return w.toPost(), nil
}

func (c *Client) Bookmark(ctx context.Context, postID string) (bool, error) {
	return c.bookmark(ctx, "bookmark", postPath(postID, "/bookmark"))
}

func (c *Client) Unbookmark(ctx context.Context, postID string) (bool, error) {
	return c.bookmark(ctx, "unbookmark", postPath(postID, "/unbookmark"))
}

func (c *Client) bookmark(ctx context.Context, op, path string) (bool, error) {
	data, err := c.do(ctx, op, http.MethodPost, path, nil, "")
	if err != nil {
		return false, err
	}
	var w wireBookmark
	if err := decodeChecked(op, data, &w); err != nil {
		return false, err
	}
	return *w.Bookmarked, nil
}

func (c *Client) AppendComment(ctx context.Context, postID, text string) ([]post.Comment, error) {
	const op = "append_comment"
	body, _ := json.Marshal(map[string]string{"text": text})
	data, err := c.do(ctx, op, http.MethodPost, postPath(postID, "/comments"), bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	var list []wireComment
	if err := decodeChecked(op, data, &list); err != nil {
		return nil, err
	}
	return toComments(list), nil
}

func (c *Client) ListPosts(ctx context.Context, q ListQuery) ([]post.Post, error) {
	const op = "list_posts"
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	path := "/api/posts"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	data, err := c.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return decodePosts(op, data)
}

func (c *Client) ListUserPosts(ctx context.Context, username string) ([]post.Post, error) {
	const op = "list_user_posts"
	data, err := c.do(ctx, op, http.MethodGet, "/api/users/"+url.PathEscape(username)+"/posts", nil, "")
	if err != nil {
		return nil, err
	}
	return decodePosts(op, data)
}

func (c *Client) ListBookmarks(ctx context.Context) ([]post.Post, error) {
	const op = "list_bookmarks"
	data, err := c.do(ctx, op, http.MethodGet, "/api/users/me/bookmarks", nil, "")
	if err != nil {
		return nil, err
	}
	return decodePosts(op, data)
}

func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	const op = "list_tags"
	data, err := c.do(ctx, op, http.MethodGet, "/api/tags", nil, "")
	if err != nil {
		return nil, err
	}
	var tags []string
	if err := decodeChecked(op, data, &tags); err != nil {
		return nil, err
	}
	return post.NormalizeTags(tags), nil
}

// CreatePost sends the post as a multipart form the way the upload form
// does. The media itself is already stored; only its reference is sent.
func (c *Client) CreatePost(ctx context.Context, req post.CreateReq) (post.Post, error) {
	const op = "create_post"
	if err := validate.Struct(req); err != nil {
		return post.Post{}, err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", req.Title},
		{"content", req.Content},
		{"tags", strings.Join(req.Tags, ",")},
		{"mediaType", string(req.MediaKind)},
	}
	if req.MediaRef != "" {
		fields = append(fields, [2]string{"mediaUrl", req.MediaRef})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return post.Post{}, fmt.Errorf("gateway %s: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return post.Post{}, fmt.Errorf("gateway %s: %w", op, err)
	}
	data, err := c.do(ctx, op, http.MethodPost, "/api/posts", &buf, mw.FormDataContentType())
	if err != nil {
		return post.Post{}, err
	}
	var w wirePost
	if err := decodeChecked(op, data, &w); err != nil {
		return post.Post{}, err
	}
	return w.toPost(), nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := c.do(ctx, "delete_post", http.MethodDelete, postPath(postID, ""), nil, "")
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (identity.User, error) {
	const op = "current_user"
	data, err := c.do(ctx, op, http.MethodGet, "/api/user", nil, "")
	if err != nil {
		return identity.User{}, err
	}
	var w wireUser
	if err := decodeChecked(op, data, &w); err != nil {
		return identity.User{}, err
	}
	u := w.toUser()
	if u.ID == "" {
		return identity.User{}, &MalformedResponseError{Op: op, Err: errors.New("user without id")}
	}
	return u, nil
}

var _ Gateway = (*Client)(nil)
