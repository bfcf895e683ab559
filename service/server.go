package service

import (
	"strconv"
	"strings"

	"github.com/fallwind/s-node/core"
	"github.com/fallwind/s-node/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// ServerService reports host and child process health for the admin
// API and the bot.
type ServerService struct {
	core   *core.Core
	tunnel *TunnelService
}

func NewServerService(c *core.Core, tunnel *TunnelService) *ServerService {
	return &ServerService{
		core:   c,
		tunnel: tunnel,
	}
}

// GetStatus answers a comma separated request string, one key per
// requested section.
func (s *ServerService) GetStatus(request string) map[string]interface{} {
	status := make(map[string]interface{}, 0)
	requests := strings.Split(request, ",")
	for _, req := range requests {
		switch req {
		case "cpu":
			status["cpu"] = s.GetCpuPercent()
		case "mem":
			status["mem"] = s.GetMemInfo()
		case "sys":
			status["uptime"] = s.GetUptime()
			status["loads"] = s.GetSystemLoads()
		case "engine":
			status["engine"] = s.GetEngineInfo()
		case "tunnel":
			status["tunnel"] = s.GetTunnelInfo()
		}
	}
	return status
}

func (s *ServerService) GetCpuPercent() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Warning("get cpu percent failed: ", err)
		return 0
	}
	if len(percents) == 0 {
		return 0
	}
	return percents[0]
}

func (s *ServerService) GetMemInfo() map[string]interface{} {
	info := map[string]interface{}{
		"current": 0,
		"total":   0,
	}
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		logger.Warning("get virtual memory failed: ", err)
		return info
	}
	info["current"] = memInfo.Used
	info["total"] = memInfo.Total
	return info
}

func (s *ServerService) GetUptime() uint64 {
	uptime, err := host.Uptime()
	if err != nil {
		logger.Warning("get uptime failed: ", err)
		return 0
	}
	return uptime
}

func (s *ServerService) GetSystemLoads() []float64 {
	avg, err := load.Avg()
	if err != nil {
		logger.Warning("get load averages failed: ", err)
		return []float64{0, 0, 0}
	}
	return []float64{avg.Load1, avg.Load5, avg.Load15}
}

func (s *ServerService) GetEngineInfo() map[string]interface{} {
	running := s.core.IsRunning()
	info := map[string]interface{}{
		"running": running,
	}
	if running {
		info["pid"] = s.core.PID()
	}
	return info
}

func (s *ServerService) GetTunnelInfo() map[string]interface{} {
	pid := s.tunnel.PID()
	info := map[string]interface{}{
		"running": pid != 0,
	}
	if pid != 0 {
		info["pid"] = pid
		if s.tunnel.IsQuick() {
			info["mode"] = "quick"
		} else {
			info["mode"] = "fixed"
		}
	}
	return info
}

// GetLogs pulls from the in memory ring, newest first. Both arguments
// arrive as query strings.
func (s *ServerService) GetLogs(count string, level string) []string {
	c, err := strconv.Atoi(count)
	if err != nil {
		c = 10
	}
	return logger.GetLogs(c, level)
}
