//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PublishFlagged(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	var opts []nats.Option
	if token := os.Getenv("NATS_TOKEN"); token != "" {
		opts = append(opts, nats.Token(token))
	}
	watcher, err := nats.Connect(natsURL, opts...)
	if err != nil {
		t.Fatalf("failed to connect watcher: %v", err)
	}
	defer watcher.Close()

	msgs := make(chan *nats.Msg, 1)
	sub, err := watcher.ChanSubscribe(SubjectInputFlagged, msgs)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()
	if err := watcher.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if err := client.PublishFlagged(ctx, "suspicious_pattern", "jailbreak please"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-msgs:
		var evt FlaggedInput
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if evt.Reason != "suspicious_pattern" || evt.Snippet != "jailbreak please" {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
