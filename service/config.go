package service

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const configFileName = "config.json"

// The engine consumes this JSON verbatim, so the structs mirror its
// schema rather than any internal type.
type engineConfig struct {
	Log       engineLog        `json:"log"`
	Inbounds  []engineInbound  `json:"inbounds"`
	Outbounds []engineOutbound `json:"outbounds"`
}

type engineLog struct {
	Level string `json:"level"`
}

type engineInbound struct {
	Type              string           `json:"type"`
	Tag               string           `json:"tag"`
	Listen            string           `json:"listen"`
	ListenPort        int              `json:"listen_port"`
	Users             []engineUser     `json:"users"`
	CongestionControl string           `json:"congestion_control,omitempty"`
	TLS               *engineTLS       `json:"tls,omitempty"`
	Transport         *engineTransport `json:"transport,omitempty"`
}

type engineUser struct {
	UUID     string `json:"uuid,omitempty"`
	Password string `json:"password,omitempty"`
	Flow     string `json:"flow,omitempty"`
}

type engineTLS struct {
	Enabled         bool           `json:"enabled"`
	ServerName      string         `json:"server_name,omitempty"`
	ALPN            []string       `json:"alpn,omitempty"`
	CertificatePath string         `json:"certificate_path,omitempty"`
	KeyPath         string         `json:"key_path,omitempty"`
	Reality         *engineReality `json:"reality,omitempty"`
}

type engineReality struct {
	Enabled    bool            `json:"enabled"`
	Handshake  engineHandshake `json:"handshake"`
	PrivateKey string          `json:"private_key"`
	ShortID    []string        `json:"short_id"`
}

type engineHandshake struct {
	Server     string `json:"server"`
	ServerPort int    `json:"server_port"`
}

type engineTransport struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type engineOutbound struct {
	Type string `json:"type"`
	Tag  string `json:"tag"`
}

// ConfigService synthesizes the engine configuration from a resolved
// provision. Inbounds follow the port plan; the loopback websocket
// inbound behind the tunnel is always present.
type ConfigService struct {
}

func (s *ConfigService) Build(p *Provision) ([]byte, error) {
	var inbounds []engineInbound

	if p.Plan.Tuic != 0 {
		inbounds = append(inbounds, engineInbound{
			Type:              "tuic",
			Tag:               "tuic-in",
			Listen:            "::",
			ListenPort:        p.Plan.Tuic,
			Users:             []engineUser{{UUID: p.Identity, Password: "admin"}},
			CongestionControl: "bbr",
			TLS: &engineTLS{
				Enabled:         true,
				ALPN:            []string{"h3"},
				CertificatePath: p.CertPath,
				KeyPath:         p.KeyPath,
			},
		})
	}

	if p.Plan.Hy2 != 0 {
		inbounds = append(inbounds, engineInbound{
			Type:       "hysteria2",
			Tag:        "hy2-in",
			Listen:     "::",
			ListenPort: p.Plan.Hy2,
			Users:      []engineUser{{Password: p.Identity}},
			TLS: &engineTLS{
				Enabled:         true,
				ALPN:            []string{"h3"},
				CertificatePath: p.CertPath,
				KeyPath:         p.KeyPath,
			},
		})
	}

	if p.Plan.Reality != 0 {
		inbounds = append(inbounds, engineInbound{
			Type:       "vless",
			Tag:        "vless-reality-in",
			Listen:     "::",
			ListenPort: p.Plan.Reality,
			Users:      []engineUser{{UUID: p.Identity, Flow: "xtls-rprx-vision"}},
			TLS: &engineTLS{
				Enabled:    true,
				ServerName: "www.nazhumi.com",
				Reality: &engineReality{
					Enabled:    true,
					Handshake:  engineHandshake{Server: "www.nazhumi.com", ServerPort: 443},
					PrivateKey: p.PrivateKey,
					ShortID:    []string{""},
				},
			},
		})
	}

	inbounds = append(inbounds, engineInbound{
		Type:       "vless",
		Tag:        "vless-argo-in",
		Listen:     "127.0.0.1",
		ListenPort: p.ArgoPort,
		Users:      []engineUser{{UUID: p.Identity}},
		Transport:  &engineTransport{Type: "ws", Path: "/" + p.Identity + "-vless"},
	})

	config := engineConfig{
		Log:       engineLog{Level: "warn"},
		Inbounds:  inbounds,
		Outbounds: []engineOutbound{{Type: "direct", Tag: "direct"}},
	}

	return json.MarshalIndent(config, "", "  ")
}

// Generate writes the engine config into dir and returns its path.
func (s *ConfigService) Generate(dir string, p *Provision) (string, error) {
	data, err := s.Build(p)
	if err != nil {
		return "", err
	}
	configPath := filepath.Join(dir, configFileName)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", err
	}
	return configPath, nil
}
