package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "")
	t.Setenv("MIRROR_BACKEND", "")
	c := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if c.FeedPageSize != 5 || c.MirrorBackend != "file" || c.GatewayTimeout != 10*time.Second {
		t.Fatalf("config %+v", c)
	}
	if c.RedisAddr() != c.RedisHost+":"+c.RedisPort {
		t.Fatal("redis addr")
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FEED_TEST_BASE=http://api.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FEED_TEST_BASE", "")
	os.Unsetenv("FEED_TEST_BASE")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("KAFKA_ASYNC", "true")
	t.Setenv("FEED_PAGE_SIZE", "oops")
	c := LoadConfig(path)
	if os.Getenv("FEED_TEST_BASE") != "http://api.test" {
		t.Fatalf("env file not loaded")
	}
	if c.GatewayTimeout != 3*time.Second || !c.KafkaAsync || c.FeedPageSize != 5 {
		t.Fatalf("config %+v", c)
	}
}
