package surface

import (
	"log"
	"sync"
	"time"
)

type Alert struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Alerts queues user-facing notifications until a renderer drains them.
// Only the most recent limit alerts are kept.
type Alerts struct {
	mu    sync.Mutex
	limit int
	queue []Alert
}

func NewAlerts(limit int) *Alerts {
	if limit <= 0 {
		limit = 32
	}
	return &Alerts{limit: limit}
}

func (a *Alerts) Alert(msg string) {
	log.Printf("alert: %s", msg)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, Alert{Message: msg, At: time.Now()})
	if over := len(a.queue) - a.limit; over > 0 {
		a.queue = append([]Alert(nil), a.queue[over:]...)
	}
}

func (a *Alerts) Drain() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.queue
	a.queue = nil
	if out == nil {
		out = []Alert{}
	}
	return out
}
