package web

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fallwind/s-node/api"
	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Server is the loopback admin API. An empty listen address keeps it
// off entirely.
type Server struct {
	service.SettingService

	httpServer *http.Server
	listener   net.Listener

	apiService api.ApiService
}

func NewServer(apiService api.ApiService) *Server {
	return &Server{
		apiService: apiService,
	}
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// The session secret is per boot, logins do not survive a restart.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	engine.Use(sessions.Sessions("s-node", cookie.NewStore(secret)))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	api.NewAPIHandler(engine.Group("/api"), s.apiService)

	return engine, nil
}

func (s *Server) Start() error {
	addr := s.GetAdminAddr()
	if addr == "" {
		logger.Info("admin API disabled")
		return nil
	}

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener
	logger.Info("admin API listening on ", addr)

	s.httpServer = &http.Server{
		Handler: engine,
	}

	go func() {
		s.httpServer.Serve(listener)
	}()

	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	s.listener = nil
	return err
}
