// Package httpserver exposes the calculator, verification and payment
// endpoints over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/materials"
	"github.com/jengacalc/jengacalc/internal/server/services"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Access    *services.AccessService
	Verifier  *services.VerifierService
	Activator *services.ActivatorService
	Sessions  *services.SessionService
	Checkout  *services.CheckoutService
	Materials *materials.Log
	// Health reports whether storage is reachable.
	Health func(ctx context.Context) error
}

type HTTPServer struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
	svc     Services
	now     timex.Clock

	webhookSecret string
	development   bool
	secureCookie  bool
	sessionTTL    time.Duration
}

// ShutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

func NewHTTPServer(cfg *config.Config, l logging.Logger, svc Services, now timex.Clock) *HTTPServer {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &HTTPServer{
		address:       cfg.HTTPAddr,
		logger:        l.With("module", "http_server"),
		svc:           svc,
		now:           now,
		webhookSecret: cfg.PaystackSecretKey,
		development:   cfg.IsDevelopment(),
		secureCookie:  strings.HasPrefix(cfg.BaseURL, "https://"),
		sessionTTL:    cfg.SessionTTL,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
