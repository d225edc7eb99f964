// Package server exposes the network status over HTTP, websocket and
// Prometheus.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamcalledrob/netutil"
	"github.com/iamcalledrob/netutil/internal/logger"
)

const (
	watchWriteTimeout = 5 * time.Second
	watchBuffer       = 4
)

// StatusSource is the monitor the server reports on.
type StatusSource interface {
	Current() netutil.Status
	Strategy() string
}

type statusPayload struct {
	Available bool                  `json:"available"`
	Kind      netutil.InterfaceKind `json:"kind"`
	Strategy  string                `json:"strategy"`
	CheckedAt time.Time             `json:"checked_at"`
}

var watchUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Server wraps HTTP serving of the status API.
type Server struct {
	httpServer *http.Server
	source     StatusSource
	registry   *prometheus.Registry
	metrics    *metrics

	mu          sync.Mutex
	subscribers map[chan statusPayload]struct{}
}

// New creates a server for source listening on addr.
func New(addr string, source StatusSource) (*Server, error) {
	reg := prometheus.NewRegistry()
	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		source:      source,
		registry:    reg,
		metrics:     m,
		subscribers: make(map[chan statusPayload]struct{}),
	}
	s.registerRoutes(mux)
	s.metrics.observe(s.payload(source.Current()))
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Publish records a status change and pushes it to websocket watchers.
func (s *Server) Publish(st netutil.Status) {
	p := s.payload(st)
	s.metrics.changes.Inc()
	s.metrics.observe(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- p:
		default:
			logger.Debug("status watcher too slow, dropping update")
		}
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/watch", s.handleWatch)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) payload(st netutil.Status) statusPayload {
	return statusPayload{
		Available: st.Available,
		Kind:      st.Kind,
		Strategy:  s.source.Strategy(),
		CheckedAt: time.Now().UTC(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p := s.payload(s.source.Current())
	s.metrics.observe(p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	if err := writePayload(conn, s.payload(s.source.Current())); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case p := <-ch:
			if err := writePayload(conn, p); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) subscribe() chan statusPayload {
	ch := make(chan statusPayload, watchBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan statusPayload) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

func writePayload(conn *websocket.Conn, p statusPayload) error {
	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
	return conn.WriteJSON(p)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
