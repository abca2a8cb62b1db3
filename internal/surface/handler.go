package surface

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"feed-client/internal/avatar"
	"feed-client/internal/feed"
	"feed-client/internal/gateway"
	"feed-client/internal/identity"
	"feed-client/internal/interaction"
	"feed-client/internal/media"
	"feed-client/internal/post"
	"feed-client/internal/shared/httpx"

	"github.com/go-playground/validator/v10"
)

// Interaction statuses returned to the renderer.
const (
	statusOK       = "ok"
	statusDropped  = "dropped"
	statusSkipped  = "skipped"
	statusReverted = "reverted"
	statusFailed   = "failed"
)

type cardView struct {
	post.Card
	MediaURL    string `json:"media_url,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	AvatarColor string `json:"avatar_color"`
}

type pageView struct {
	Surface    string        `json:"surface"`
	Criteria   feed.Criteria `json:"criteria"`
	Cards      []cardView    `json:"cards"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Total      int           `json:"total"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
	Controls   bool          `json:"show_controls"`
	Label      string        `json:"label,omitempty"`
	TotalLikes *int          `json:"total_likes,omitempty"`
}

type actionResult struct {
	Status string    `json:"status"`
	Card   *cardView `json:"card,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type criteriaReq struct {
	Search string    `json:"search"`
	Tag    string    `json:"tag"`
	Sort   feed.Sort `json:"sort"`
}

type commentReq struct {
	Text string `json:"text"`
}

type Handler struct {
	reg     *Registry
	gw      gateway.Gateway
	session *identity.Session
	media   media.Resolver
	alerts  *Alerts
}

func NewHandler(reg *Registry, gw gateway.Gateway, session *identity.Session, res media.Resolver, alerts *Alerts) *Handler {
	return &Handler{reg: reg, gw: gw, session: session, media: res, alerts: alerts}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /surfaces/{name}/page", httpx.Wrap(h.Page))
	mux.Handle("POST /surfaces/{name}/criteria", httpx.Wrap(h.SetCriteria))
	mux.Handle("POST /surfaces/{name}/next", httpx.Wrap(h.Next))
	mux.Handle("POST /surfaces/{name}/prev", httpx.Wrap(h.Prev))
	mux.Handle("POST /surfaces/{name}/reload", httpx.Wrap(h.Reload))
	mux.Handle("POST /surfaces/{name}/posts/{post_id}/like", httpx.Wrap(h.Like))
	mux.Handle("POST /surfaces/{name}/posts/{post_id}/bookmark", httpx.Wrap(h.Bookmark))
	mux.Handle("POST /surfaces/{name}/posts/{post_id}/comments", httpx.Wrap(h.Comment))
	mux.Handle("POST /posts", httpx.Wrap(h.Create))
	mux.Handle("DELETE /posts/{post_id}", httpx.Wrap(h.Delete))
	mux.Handle("GET /tags", httpx.Wrap(h.Tags))
	mux.Handle("GET /me", httpx.Wrap(h.Me))
	mux.Handle("GET /alerts", httpx.Wrap(h.Alerts))
	mux.Handle("GET /avatar/color", httpx.Wrap(h.AvatarColor))
}

func (h *Handler) open(r *http.Request) (*Surface, error) {
	s, err := h.reg.Open(r.Context(), r.PathValue("name"))
	if errors.Is(err, ErrUnknownSurface) {
		return nil, httpx.Status(http.StatusNotFound, "unknown_surface", err)
	}
	if err != nil {
		return nil, upstream(err)
	}
	return s, nil
}

// upstream maps gateway failures onto a 502 with a reason the renderer can show.
func upstream(err error) error {
	var me *gateway.MalformedResponseError
	if errors.As(err, &me) {
		return httpx.Status(http.StatusBadGateway, "malformed_response", err)
	}
	var ne *gateway.NetworkError
	if errors.As(err, &ne) {
		return httpx.Status(http.StatusBadGateway, "network", err)
	}
	return err
}

func (h *Handler) view(ctx context.Context, c post.Card) cardView {
	v := cardView{Card: c, AvatarColor: avatar.Color(c.Post.Author.Username)}
	if c.Post.MediaRef != "" {
		u, err := h.media.Resolve(ctx, c.Post.MediaRef)
		if err != nil {
			log.Printf("surface: resolve media %s: %v", c.Post.MediaRef, err)
		}
		v.MediaURL = u
		if c.Post.MediaKind == post.KindFile {
			v.FileName = media.FileName(c.Post.MediaRef)
		}
	}
	if c.Post.Author.Avatar != "" {
		if u, err := h.media.Resolve(ctx, c.Post.Author.Avatar); err == nil {
			v.AvatarURL = u
		}
	}
	return v
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, s *Surface) {
	pg := s.View().Page()
	out := pageView{
		Surface:  s.Name,
		Criteria: s.View().Criteria(),
		Cards:    make([]cardView, 0, len(pg.Cards)),
		Start:    pg.Start,
		End:      pg.End,
		Total:    pg.Total,
		HasPrev:  pg.HasPrev,
		HasNext:  pg.HasNext,
		Controls: pg.ShowControls,
		Label:    pg.Label,
	}
	for _, c := range pg.Cards {
		out.Cards = append(out.Cards, h.view(r.Context(), c))
	}
	if s.Kind == KindProfile {
		n := feed.TotalLikes(s.Store().Snapshot())
		out.TotalLikes = &n
	}
	httpx.WriteJSON(w, out, http.StatusOK)
}

// Page writes the current page. An optional ?page=N jumps to page N first.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	if n := httpx.QueryInt(r, "page", 0); n > 0 {
		s.View().Goto(n)
	}
	h.writePage(w, r, s)
	return nil
}

func (h *Handler) SetCriteria(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	in, err := httpx.Decode[criteriaReq](r)
	if err != nil {
		return err
	}
	if in.Sort != "" && !in.Sort.Valid() {
		return invalid(fmt.Errorf("unknown sort %q", in.Sort))
	}
	if err := s.SetCriteria(r.Context(), feed.Criteria{Search: in.Search, Tag: in.Tag, Sort: in.Sort}); err != nil {
		return upstream(err)
	}
	h.writePage(w, r, s)
	return nil
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	s.View().Next()
	h.writePage(w, r, s)
	return nil
}

func (h *Handler) Prev(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	s.View().Prev()
	h.writePage(w, r, s)
	return nil
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	if err := s.Load(r.Context()); err != nil {
		return upstream(err)
	}
	h.writePage(w, r, s)
	return nil
}

// writeAction reports an interaction outcome. Dropped and abandoned calls are
// not errors for the renderer, so they answer 202.
func (h *Handler) writeAction(w http.ResponseWriter, r *http.Request, s *Surface, id string, err error, revertible bool) error {
	res := actionResult{Status: statusOK}
	code := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, interaction.ErrBusy):
		res.Status, code = statusDropped, http.StatusAccepted
	case errors.Is(err, interaction.ErrMissingIdentity), errors.Is(err, interaction.ErrEmptyComment):
		res.Status, code = statusSkipped, http.StatusAccepted
	case errors.Is(err, interaction.ErrNotFound):
		return httpx.Status(http.StatusNotFound, "not_found", err)
	case revertible:
		res.Status = statusReverted
	default:
		res.Status, res.Error, code = statusFailed, err.Error(), http.StatusBadGateway
	}
	if c, ok := s.Store().Get(id); ok {
		v := h.view(r.Context(), c)
		res.Card = &v
	}
	httpx.WriteJSON(w, res, code)
	return nil
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	id := r.PathValue("post_id")
	err = h.reg.Controller().ToggleLike(r.Context(), s.Store(), id)
	return h.writeAction(w, r, s, id, err, true)
}

func (h *Handler) Bookmark(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	id := r.PathValue("post_id")
	err = h.reg.Bookmark(r.Context(), s, id)
	return h.writeAction(w, r, s, id, err, false)
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) error {
	s, err := h.open(r)
	if err != nil {
		return err
	}
	in, err := httpx.Decode[commentReq](r)
	if err != nil {
		return err
	}
	id := r.PathValue("post_id")
	err = h.reg.Controller().AddComment(r.Context(), s.Store(), id, in.Text)
	return h.writeAction(w, r, s, id, err, false)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	in, err := httpx.Decode[post.CreateReq](r)
	if err != nil {
		return err
	}
	card, err := h.reg.Create(r.Context(), in)
	if err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return invalid(err)
		}
		return upstream(err)
	}
	httpx.WriteJSON(w, h.view(r.Context(), card), http.StatusCreated)
	return nil
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	err := h.reg.Delete(r.Context(), r.PathValue("post_id"))
	if errors.Is(err, interaction.ErrBusy) {
		httpx.WriteJSON(w, actionResult{Status: statusDropped}, http.StatusAccepted)
		return nil
	}
	if err != nil {
		return upstream(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) error {
	tags, err := h.gw.ListTags(r.Context())
	if err != nil {
		return upstream(err)
	}
	httpx.WriteJSON(w, tags, http.StatusOK)
	return nil
}

// Me returns the session user, asking the server when the session is empty.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	u, ok := h.session.Current()
	if !ok {
		var err error
		if u, err = h.gw.CurrentUser(r.Context()); err != nil {
			return upstream(err)
		}
		h.session.Set(u)
	}
	httpx.WriteJSON(w, u, http.StatusOK)
	return nil
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) error {
	httpx.WriteJSON(w, h.alerts.Drain(), http.StatusOK)
	return nil
}

func (h *Handler) AvatarColor(w http.ResponseWriter, r *http.Request) error {
	name := r.URL.Query().Get("username")
	httpx.WriteJSON(w, map[string]string{"username": name, "color": avatar.Color(name)}, http.StatusOK)
	return nil
}

func invalid(err error) error {
	return httpx.Status(http.StatusUnprocessableEntity, "validation", err)
}
