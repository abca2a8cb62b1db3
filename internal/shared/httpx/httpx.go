package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

type APIError struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status"`
}

// StatusError lets a handler choose the status written by Wrap.
type StatusError struct {
	Status int
	Reason string
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }
func (e *StatusError) Unwrap() error { return e.Err }

func Status(code int, reason string, err error) error {
	return &StatusError{Status: code, Reason: reason, Err: err}
}

type HandlerFunc func(http.ResponseWriter, *http.Request) error

func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				WriteError(w, se.Status, se.Err, se.Reason)
				return
			}
			WriteError(w, http.StatusBadRequest, err, "")
		}
	})
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, err error, reason string) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	WriteJSON(w, APIError{Error: err.Error(), Reason: reason, Status: status}, status)
}

func Decode[T any](r *http.Request) (T, error) {
	var v T
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, Status(http.StatusBadRequest, "bad_json", err)
	}
	return v, nil
}

func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
