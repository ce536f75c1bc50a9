package infra

import (
	"context"
	"net/http"
	"time"
)

// Header reads are bounded tightly; body timeouts come from configuration
// because staged uploads can run to 100MB.
const readHeaderTimeout = 5 * time.Second

// HTTPServer owns the gateway's listener lifecycle. cmd/api starts it in a
// goroutine and drives Shutdown from the signal handler.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the listener from configuration.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// Start serves until the listener closes. It blocks; run it in a goroutine
// when a shutdown path is needed.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
