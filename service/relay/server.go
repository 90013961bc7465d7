package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/aamitn/bitmutex-website-sub000/global/config"
	"github.com/aamitn/bitmutex-website-sub000/logger"
	"github.com/aamitn/bitmutex-website-sub000/middleware"
)

// Server mounts the relay on an HTTP surface: the /ws visitor endpoint plus
// health and live-count probes for the website front-end.
type Server struct {
	gw        *Gateway
	upgrader  websocket.Upgrader
	sendQueue int
	addr      string
	engine    *gin.Engine
	httpSrv   *http.Server
}

func NewServer(cfg *config.AppConfig, gw *Gateway) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		gw:        gw,
		upgrader:  newUpgrader(cfg.AllowedOrigins),
		sendQueue: cfg.SendQueue,
		addr:      cfg.ListenAddr,
		engine:    gin.New(),
	}

	s.engine.Use(gin.Recovery(), middleware.Origin(cfg.AllowedOrigins))
	s.engine.GET("/ws", s.HandleWS)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/api/live", s.handleLive)

	s.httpSrv = &http.Server{Addr: cfg.ListenAddr, Handler: s.engine}
	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.gw.Live()})
}

// Run serves until ctx is cancelled, then drains with a bounded shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[server] listening on %s", s.addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	logger.Info("[server] stopped")
	return nil
}
