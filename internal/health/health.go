// Package health exposes the keep-alive HTTP endpoint hosting platforms poll
// to keep the bot process awake.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"log/slog"

	"comfortlybot/core/logger"
)

const liveBody = "Comfortly bot is running!"

// Server wraps the HTTP listener serving the keep-alive endpoint.
type Server struct {
	srv *http.Server
}

// New builds the server bound to the given listen address.
func New(listen string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, liveBody)
	})
	return &Server{
		srv: &http.Server{
			Addr:              listen,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine. Listener failures are
// logged, not fatal; the bot keeps running without the keep-alive endpoint.
func (s *Server) Start() {
	go func() {
		logger.Info(context.Background(), "health", "listen",
			slog.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "health", "listen.failed",
				slog.String("addr", s.srv.Addr),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
