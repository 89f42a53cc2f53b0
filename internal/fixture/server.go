// Package fixture serves the static pages browsers are pointed at in
// integration tests and by the serve command.
package fixture

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server represents the fixture site server
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// NewServer creates a fixture server listening on addr.
func NewServer(addr string, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}

	s := &Server{engine: engine}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	return s
}

// Handler exposes the routes, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	for path, page := range Pages {
		html := page.HTML
		s.engine.GET(path, func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		})
	}

	s.engine.GET("/", func(c *gin.Context) {
		paths := make([]string, 0, len(Pages))
		for path := range Pages {
			paths = append(paths, path)
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "bokchoy fixture site",
			"pages":   paths,
		})
	})
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	log.Debugf("Starting fixture server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the fixture server
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("Stopping fixture server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
