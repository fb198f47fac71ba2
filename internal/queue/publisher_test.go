package queue

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestPublishFailsFastOnSilentBroker(t *testing.T) {
	t.Parallel()

	// Accepts TCP connections but never speaks AMQP.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	p := NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", nil)
	p.dialTimeout = 100 * time.Millisecond

	start := time.Now()
	err = p.Publish(context.Background(), BookingEvent{Type: TypeRegistrationCreated, EventID: "e1"})
	if err == nil {
		t.Fatal("expected publish to a silent broker to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected the handshake to time out quickly, took %v", elapsed)
	}
}

func TestNewPublisherBoundsDial(t *testing.T) {
	t.Parallel()
	if p := NewPublisher("amqp://localhost/", nil); p.dialTimeout != dialTimeout || dialTimeout > 5*time.Second {
		t.Fatalf("expected a short default dial timeout, got %v", p.dialTimeout)
	}
}
