package service

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/util/common"

	"gopkg.in/yaml.v3"
)

// fileSetting mirrors the optional s-node.yaml file. Environment
// variables take precedence over it, it takes precedence over the
// built-in defaults.
type fileSetting struct {
	Ports         string `yaml:"ports"`
	SinglePortUDP string `yaml:"singlePortUDP"`
	ArgoToken     string `yaml:"argoToken"`
	ArgoDomain    string `yaml:"argoDomain"`
	ArgoPort      int    `yaml:"argoPort"`
	AdminAddr     string `yaml:"adminAddr"`
	Fresh         bool   `yaml:"fresh"`
	TrafficAge    int    `yaml:"trafficAge"`
	SessionMaxAge int    `yaml:"sessionMaxAge"`
	TimeZone      string `yaml:"timeZone"`
}

var (
	fileSettingOnce sync.Once
	fileSettingData fileSetting
)

func loadFileSetting() *fileSetting {
	fileSettingOnce.Do(func() {
		data, err := os.ReadFile(config.GetSettingPath())
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warning("read setting file failed: ", err)
			}
			return
		}
		if err := yaml.Unmarshal(data, &fileSettingData); err != nil {
			logger.Warning("parse setting file failed: ", err)
		}
	})
	return &fileSettingData
}

type SettingService struct {
}

func (s *SettingService) getString(env string, fileValue string, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// GetPorts returns the public port list, space separated in SERVER_PORT.
// An empty list is a fatal misconfiguration.
func (s *SettingService) GetPorts() ([]string, error) {
	raw := s.getString("SERVER_PORT", loadFileSetting().Ports, "")
	ports := strings.Fields(raw)
	if len(ports) == 0 {
		return nil, common.NewError("no ports found; set SERVER_PORT, e.g. 'SERVER_PORT=443'")
	}
	return ports, nil
}

// GetSinglePortUDP selects which UDP protocol owns the single port,
// "hy2" (default) or "tuic".
func (s *SettingService) GetSinglePortUDP() string {
	proto := s.getString("SINGLE_PORT_UDP", loadFileSetting().SinglePortUDP, "hy2")
	if proto != "hy2" && proto != "tuic" {
		logger.Warning("unknown SINGLE_PORT_UDP value ", proto, ", using hy2")
		return "hy2"
	}
	return proto
}

// GetArgoToken returns the fixed tunnel token; empty selects the quick
// tunnel.
func (s *SettingService) GetArgoToken() string {
	return s.getString("ARGO_TOKEN", loadFileSetting().ArgoToken, "")
}

// GetArgoDomain returns the fixed tunnel hostname. It is assigned out
// of band, so with a token but no domain the tunnel still runs and only
// the subscription entry is omitted.
func (s *SettingService) GetArgoDomain() string {
	return s.getString("ARGO_DOMAIN", loadFileSetting().ArgoDomain, "")
}

// GetArgoPort is the loopback port cloudflared forwards to.
func (s *SettingService) GetArgoPort() (int, error) {
	file := loadFileSetting().ArgoPort
	fileValue := ""
	if file > 0 {
		fileValue = strconv.Itoa(file)
	}
	raw := s.getString("ARGO_PORT", fileValue, "8081")
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, common.NewError("invalid ARGO_PORT: ", raw)
	}
	return port, nil
}

// GetAdminAddr is the loopback admin API listen address. Empty disables
// the admin server.
func (s *SettingService) GetAdminAddr() string {
	return s.getString("SNODE_ADMIN_ADDR", loadFileSetting().AdminAddr, "127.0.0.1:2095")
}

// IsFresh reports whether the startup wipe should also drop the
// persisted identity and reality key files.
func (s *SettingService) IsFresh() bool {
	if v := os.Getenv("SNODE_FRESH"); v != "" {
		return v == "true"
	}
	return loadFileSetting().Fresh
}

// GetTrafficAge is the retention window, in days, for run history and
// subscription visit rows. Zero disables pruning.
func (s *SettingService) GetTrafficAge() int {
	file := loadFileSetting().TrafficAge
	fileValue := ""
	if file > 0 {
		fileValue = strconv.Itoa(file)
	}
	raw := s.getString("SNODE_TRAFFIC_AGE", fileValue, "30")
	age, err := strconv.Atoi(raw)
	if err != nil || age < 0 {
		logger.Warning("invalid SNODE_TRAFFIC_AGE value ", raw, ", using 30")
		return 30
	}
	return age
}

// GetSessionMaxAge is the admin session lifetime in minutes.
func (s *SettingService) GetSessionMaxAge() (int, error) {
	file := loadFileSetting().SessionMaxAge
	fileValue := ""
	if file > 0 {
		fileValue = strconv.Itoa(file)
	}
	raw := s.getString("SNODE_SESSION_MAX_AGE", fileValue, "60")
	age, err := strconv.Atoi(raw)
	if err != nil || age < 0 {
		return 0, common.NewError("invalid SNODE_SESSION_MAX_AGE: ", raw)
	}
	return age, nil
}

// GetTimeLocation resolves the scheduler time zone.
func (s *SettingService) GetTimeLocation() (*time.Location, error) {
	name := s.getString("SNODE_TIME_ZONE", loadFileSetting().TimeZone, "Local")
	return time.LoadLocation(name)
}
