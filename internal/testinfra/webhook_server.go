// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// WebhookCapture is one request received by MockWebhookServer.
type WebhookCapture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// MockWebhookServer records every request it receives. It is closed
// automatically when the test ends.
type MockWebhookServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	captures []WebhookCapture
	status   atomic.Int32
}

// NewMockWebhookServer starts a server that answers 200 by default.
func NewMockWebhookServer(t *testing.T) *MockWebhookServer {
	t.Helper()

	m := &MockWebhookServer{}
	m.status.Store(http.StatusOK)
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		m.mu.Lock()
		m.captures = append(m.captures, WebhookCapture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		m.mu.Unlock()

		w.WriteHeader(int(m.status.Load()))
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *MockWebhookServer) URL() string {
	return m.server.URL
}

// SetStatus changes the status code returned for subsequent requests.
func (m *MockWebhookServer) SetStatus(code int) {
	m.status.Store(int32(code))
}

// Captures returns a copy of everything received so far.
func (m *MockWebhookServer) Captures() []WebhookCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WebhookCapture, len(m.captures))
	copy(out, m.captures)
	return out
}

// WaitForCaptures polls until at least n requests arrived or timeout elapses.
func (m *MockWebhookServer) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		got := len(m.captures)
		m.mu.Unlock()
		if got >= n {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
