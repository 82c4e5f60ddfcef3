// Package server wraps net/http with a bind-first lifecycle so the
// effective listening port is known before the theme is rendered.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server binds a listener, then serves a handler on it.
type Server struct {
	httpServer *http.Server
	ln         net.Listener
}

// Listen binds addr and returns the bound port. With ":0" the OS picks a
// free port; the returned value is the one clients must use.
func (s *Server) Listen(addr string) (int, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Serve blocks serving handler on the bound listener. Returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Serve(handler http.Handler) error {
	if s.ln == nil {
		return fmt.Errorf("serve: Listen must be called first")
	}
	// No WriteTimeout: /ws connections are long-lived and manage their
	// own deadlines after the upgrade.
	s.httpServer = &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s.httpServer.Serve(s.ln)
}

// Shutdown stops accepting new connections and lets in-flight requests
// complete, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		if s.ln != nil {
			return s.ln.Close()
		}
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
