package service

import (
	"os"
	"syscall"
	"time"

	"github.com/fallwind/s-node/logger"
)

type PanelService struct {
}

// RestartPanel signals the current process with SIGHUP after a delay;
// main traps the signal and re-runs the whole pipeline. The delay lets
// the HTTP response reach the caller before the listeners go down.
func (s *PanelService) RestartPanel(delay time.Duration) error {
	p, err := os.FindProcess(syscall.Getpid())
	if err != nil {
		return err
	}
	go func() {
		time.Sleep(delay)
		if err := p.Signal(syscall.SIGHUP); err != nil {
			logger.Error("send signal SIGHUP failed:", err)
		}
	}()
	return nil
}
