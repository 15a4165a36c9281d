// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// silentBroker accepts TCP connections and never speaks AMQP.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestRabbitPublisher_DeadBrokerFailsFast(t *testing.T) {
	t.Parallel()

	pub := newRabbitPublisher(RabbitConfig{
		URL:         silentBroker(t),
		Exchange:    "safarsathi.alerts",
		Origin:      "node-a",
		DialTimeout: 200 * time.Millisecond,
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	took := make([]time.Duration, 2)
	for i, tourist := range []string{"T1", "T2"} {
		wg.Add(1)
		go func(i int, tourist string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			start := time.Now()
			errs[i] = pub.Publish(ctx, "alerts", testAlert(int64(i+1), tourist))
			took[i] = time.Since(start)
		}(i, tourist)
	}
	wg.Wait()

	for i := range errs {
		if !errors.Is(errs[i], ErrBrokerUnavailable) {
			t.Errorf("publish %d err = %v, want ErrBrokerUnavailable", i, errs[i])
		}
		if took[i] > 150*time.Millisecond {
			t.Errorf("publish %d blocked for %v", i, took[i])
		}
	}

	// Repeated failures open the breaker; calls keep returning immediately.
	var err error
	for i := 0; i < 5; i++ {
		err = pub.Publish(context.Background(), "alerts", testAlert(10, "T1"))
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want breaker open", err)
	}
	if pub.BreakerState() != gobreaker.StateOpen.String() {
		t.Errorf("breaker state = %s", pub.BreakerState())
	}

	done := make(chan error, 1)
	go func() { done <- pub.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wait out the background reconnect in time")
	}
}

func TestRabbitPublisher_CanceledContext(t *testing.T) {
	t.Parallel()

	pub := newRabbitPublisher(RabbitConfig{URL: silentBroker(t), Exchange: "x", DialTimeout: 100 * time.Millisecond})
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, "alerts", testAlert(1, "T1")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRabbitPublisher_Closed(t *testing.T) {
	t.Parallel()

	pub := newRabbitPublisher(RabbitConfig{URL: silentBroker(t), Exchange: "x"})
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Publish(context.Background(), "alerts", testAlert(1, "T1")); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("err = %v, want ErrPublisherClosed", err)
	}
}

func TestNewRabbitPublisher_DialTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := NewRabbitPublisher(RabbitConfig{URL: silentBroker(t), Exchange: "x", DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected a handshake timeout")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Errorf("dial took %v despite a 200ms timeout", took)
	}
}
