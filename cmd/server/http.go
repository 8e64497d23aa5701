package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// httpServer wraps the Gin engine in an http.Server so shutdown can
// drain in-flight requests.
type httpServer struct {
	server *http.Server
}

func newHTTPServer(router *gin.Engine, addr string) *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

func (s *httpServer) addr() string {
	return s.server.Addr
}

func (s *httpServer) run() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
