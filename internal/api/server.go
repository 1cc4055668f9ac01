package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abhisek/trailquest/internal/engine"
	"github.com/abhisek/trailquest/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	http *http.Server
	log  *logger.Logger
}

func NewServer(addr string, eng *engine.Engine, log *logger.Logger) *Server {
	log = logger.OrNop(log)
	router := NewRouter(RouterConfig{
		Handler: NewHandler(log, eng),
		Log:     log.With("component", "http"),
	})
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
