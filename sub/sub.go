package sub

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"
	"github.com/fallwind/s-node/util/common"

	"github.com/gin-gonic/gin"
)

// ProvisionSource hands out the run currently being served.
type ProvisionSource interface {
	Current() *service.Provision
}

// Server publishes the subscription document on the HTTP share port.
// The route match is deliberately loose: any path containing "/sub" or
// the node identity is served, everything else is a plain "404" body.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	provision ProvisionSource
	stats     *service.StatsService
}

func NewServer(provision ProvisionSource, stats *service.StatsService) *Server {
	return &Server{
		provision: provision,
		stats:     stats,
	}
}

func (s *Server) initRouter() *gin.Engine {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.NoRoute(s.handle)

	return engine
}

func (s *Server) handle(c *gin.Context) {
	p := s.provision.Current()
	path := c.Request.URL.Path

	if p == nil || !matches(path, p.Identity) {
		c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte("404"))
		return
	}

	s.stats.CountVisit(getRemoteIp(c), path)

	// The 200 is committed before the read, a torn file still answers
	// with an "error" body.
	data, err := os.ReadFile(p.SubPath())
	if err != nil {
		logger.Warning("read subscription file failed: ", err)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("error"))
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func matches(path string, identity string) bool {
	return strings.Contains(path, "/sub") || strings.Contains(path, "/"+identity)
}

func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return ip
}

func (s *Server) Start() error {
	p := s.provision.Current()
	if p == nil {
		return common.NewError("no provision to serve")
	}

	engine := s.initRouter()

	addr := fmt.Sprintf(":%d", p.Plan.HTTP)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener
	logger.Info("subscription server listening on ", addr)

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
