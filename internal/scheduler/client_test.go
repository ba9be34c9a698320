package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testConfig struct {
	redisURL string
}

func (c testConfig) GetRedisURL() string                 { return c.redisURL }
func (c testConfig) GetRedisTLSInsecure() bool           { return false }
func (c testConfig) GetAsynqQueueName() string           { return "default" }
func (c testConfig) GetAsynqConcurrency() int            { return 1 }
func (c testConfig) GetOrphanGracePeriod() time.Duration { return 24 * time.Hour }

func TestEnqueueOrphanSweep(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueOrphanSweep(context.Background(), "pets"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending := false
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "asynq:") && strings.Contains(key, "pending") {
			pending = true
		}
	}
	if !pending {
		t.Errorf("task not queued, redis keys: %v", mr.Keys())
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("missing redis url must be an error")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueOrphanSweep(context.Background(), "pets"); err != nil {
		t.Fatalf("nil client must no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client close must no-op, got %v", err)
	}
}
