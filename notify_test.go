package ytdash

import (
	"context"
	"testing"
)

func TestNewNotifierWithoutBroker(t *testing.T) {
	n := NewNotifier(testLogger, Broker{})
	if _, ok := n.(noopNotifier); !ok {
		t.Fatalf("NewNotifier = %T; want noopNotifier", n)
	}
	n.NotifyCommentsUpdated(context.Background(), 3)
	n.Close()
}

func TestNewNotifierUnreachableBroker(t *testing.T) {
	n := NewNotifier(testLogger, Broker{Address: "nats://127.0.0.1:1", Subject: "ytdash.test"})
	defer n.Close()
	if _, ok := n.(noopNotifier); !ok {
		t.Fatalf("NewNotifier = %T; want noopNotifier for an unreachable broker", n)
	}
}
