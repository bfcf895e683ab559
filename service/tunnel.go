package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fallwind/s-node/core"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/util/common"
)

const tunnelLogFileName = "argo.log"

var quickDomainPattern = regexp.MustCompile(`https://[a-zA-Z0-9-]+\.trycloudflare\.com`)

// TunnelService runs the tunnel client as a child process. With a
// token it joins the fixed tunnel whose hostname is assigned out of
// band; without one it opens a quick tunnel and the hostname has to be
// scraped from the client's log.
type TunnelService struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	logPath string
	quick   bool
}

func NewTunnelService() *TunnelService {
	return &TunnelService{}
}

func tunnelArgs(token string, argoPort int) []string {
	if token != "" {
		return []string{"tunnel", "--no-autoupdate", "run", "--token", token}
	}
	return []string{
		"tunnel",
		"--edge-ip-version", "auto",
		"--protocol", "http2",
		"--no-autoupdate",
		"--url", fmt.Sprintf("http://127.0.0.1:%d", argoPort),
	}
}

// StartTunnel launches the client with its output captured in
// argo.log inside dir.
func (s *TunnelService) StartTunnel(binPath string, dir string, token string, argoPort int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return common.NewError("tunnel is already running")
	}

	if err := core.CheckExecutable(binPath); err != nil {
		return err
	}

	logPath := filepath.Join(dir, tunnelLogFileName)
	logFile, err := os.Create(logPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(binPath, tunnelArgs(token, argoPort)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return err
	}

	go func() {
		cmd.Wait()
		logFile.Close()
	}()

	s.cmd = cmd
	s.logPath = logPath
	s.quick = token == ""
	return nil
}

func (s *TunnelService) IsQuick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quick
}

func (s *TunnelService) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// ExtractQuickDomain pulls the assigned trycloudflare hostname out of
// client log text.
func ExtractQuickDomain(logText string) (string, bool) {
	m := quickDomainPattern.FindString(logText)
	if m == "" {
		return "", false
	}
	return strings.TrimPrefix(m, "https://"), true
}

// ScrapeQuickDomain reads the current log once.
func (s *TunnelService) ScrapeQuickDomain() (string, bool) {
	s.mu.Lock()
	logPath := s.logPath
	s.mu.Unlock()
	if logPath == "" {
		return "", false
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", false
	}
	return ExtractQuickDomain(string(data))
}

// WaitForQuickDomain polls the log until the hostname shows up. ok is
// false when every attempt came up empty; the caller then publishes
// without a tunnel entry.
func (s *TunnelService) WaitForQuickDomain(attempts int, interval time.Duration) (string, bool) {
	for i := 0; i < attempts; i++ {
		time.Sleep(interval)
		if domain, ok := s.ScrapeQuickDomain(); ok {
			return domain, true
		}
	}
	return "", false
}

func (s *TunnelService) StopTunnel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	s.quick = false
	if err != nil {
		logger.Warning("stop tunnel failed: ", err)
	}
	return err
}
