package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"fintrack/internal/shared/config"
	"fintrack/internal/shared/middleware"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// Servers is the API server plus the optional plain-HTTP redirect server.
type Servers struct {
	api      *http.Server
	redirect *http.Server
	tls      bool
	certPath string
	keyPath  string
}

// NewServers builds the servers described by cfg around handler.
func NewServers(handler http.Handler, cfg *config.Config) *Servers {
	s := &Servers{
		api:      newHTTPServer(cfg.Server.Host+":"+cfg.Server.Port, handler),
		tls:      cfg.TLS.Enabled,
		certPath: cfg.TLS.CertPath,
		keyPath:  cfg.TLS.KeyPath,
	}
	if cfg.TLS.Enabled && cfg.TLS.RedirectHTTP {
		s.redirect = newHTTPServer(":80", middleware.RedirectHTTPS(cfg.Server.AllowedHosts))
	}
	return s
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Start listens in the background. A listener that fails reports on the
// returned channel; a clean shutdown reports nothing.
func (s *Servers) Start() <-chan error {
	errc := make(chan error, 2)

	if s.redirect != nil {
		go func() {
			log.Printf("HTTP redirect server starting on %s", s.redirect.Addr)
			if err := s.redirect.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("redirect server: %w", err)
			}
		}()
	}

	go func() {
		var err error
		if s.tls {
			log.Printf("HTTPS server starting on %s", s.api.Addr)
			err = s.api.ListenAndServeTLS(s.certPath, s.keyPath)
		} else {
			log.Printf("HTTP server starting on %s", s.api.Addr)
			err = s.api.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("api server: %w", err)
		}
	}()

	return errc
}

// Shutdown drains in-flight requests on both servers within timeout.
func (s *Servers) Shutdown(timeout time.Duration) error {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if s.redirect != nil {
		if err := s.redirect.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redirect server: %w", err))
		}
	}
	if err := s.api.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("api server: %w", err))
	}

	log.Println("Server stopped")
	return errors.Join(errs...)
}
