package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// NewServer wraps the router in an http.Server with a worker-style
// lifecycle.
func NewServer(listenAddress string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:    listenAddress,
			Handler: handler,
		},
	}
}

type Server struct {
	srv *http.Server
	err chan error
}

func (s *Server) Start() error {
	s.err = make(chan error, 1)
	go func() {
		log.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.err <- err
		}
	}()
	// Surface an immediate bind failure instead of reporting it on
	// shutdown.
	select {
	case err := <-s.err:
		return errors.Wrap(err, "starting HTTP server")
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "stopping HTTP server")
	}
	select {
	case err := <-s.err:
		return err
	default:
		return nil
	}
}
