package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

type Writer interface {
	// WriteJSON publishes v keyed by key so events for one post stay ordered.
	WriteJSON(ctx context.Context, key string, v any) error
	Close() error
}

type Config struct {
	Brokers      string // comma separated
	Topic        string
	RequiredAcks string // none | one | all
	Async        bool
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

type writer struct {
	w messageWriter
}

func NewWriter(cfg Config) (Writer, error) {
	addrs := splitBrokers(cfg.Brokers)
	if len(addrs) == 0 {
		addrs = []string{"kafka:9092"}
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(addrs...),
		Topic:        cfg.Topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		Async:        cfg.Async,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &writer{w: w}, nil
}

func (wr *writer) WriteJSON(ctx context.Context, key string, v any) error {
	b, ok := v.([]byte)
	if !ok {
		var err error
		if b, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return wr.w.WriteMessages(ctx, kgo.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

func (wr *writer) Close() error { return wr.w.Close() }

func requiredAcks(s string) kgo.RequiredAcks {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return kgo.RequireNone
	case "all":
		return kgo.RequireAll
	default:
		return kgo.RequireOne
	}
}

func splitBrokers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
