package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWrapStatusError(t *testing.T) {
	h := Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return Status(http.StatusConflict, "busy", errors.New("in flight"))
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("code=%d", rec.Code)
	}
	var body APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Reason != "busy" || body.Error != "in flight" || body.Status != 409 {
		t.Fatalf("body=%+v", body)
	}
}

func TestWrapPlainErrorIsBadRequest(t *testing.T) {
	h := Wrap(func(w http.ResponseWriter, r *http.Request) error { return errors.New("nope") })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	type body struct {
		Text string `json:"text"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"x","extra":1}`))
	if _, err := Decode[body](r); err == nil {
		t.Fatal("expected error")
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"x"}`))
	if b, err := Decode[body](r); err != nil || b.Text != "x" {
		t.Fatalf("b=%+v err=%v", b, err)
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&bad=x", nil)
	if n := QueryInt(r, "page", 1); n != 3 {
		t.Fatalf("page=%d", n)
	}
	if n := QueryInt(r, "bad", 7); n != 7 {
		t.Fatalf("bad=%d", n)
	}
	if n := QueryInt(r, "missing", 5); n != 5 {
		t.Fatalf("missing=%d", n)
	}
}
