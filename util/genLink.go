package util

import (
	"fmt"
)

// LinkInfo carries everything the URI renderer needs. A zero port or
// empty tunnel domain drops the corresponding entry.
type LinkInfo struct {
	Identity     string
	PublicIP     string
	ISP          string
	FrontDomain  string
	TunnelDomain string
	PublicKey    string
	TuicPort     int
	Hy2Port      int
	RealityPort  int
}

// SubscriptionLinks renders the node's proxy URIs in a stable order:
// tuic, hysteria2, reality, tunnel. Client apps parse these byte for
// byte, so the formats are frozen.
func SubscriptionLinks(info LinkInfo) []string {
	var links []string
	if info.TuicPort != 0 {
		links = append(links, tuicLink(info))
	}
	if info.Hy2Port != 0 {
		links = append(links, hysteria2Link(info))
	}
	if info.RealityPort != 0 {
		links = append(links, realityLink(info))
	}
	if info.TunnelDomain != "" {
		links = append(links, argoLink(info))
	}
	return links
}

func tuicLink(info LinkInfo) string {
	return fmt.Sprintf(
		"tuic://%s:admin@%s:%d?sni=www.bing.com&alpn=h3&congestion_control=bbr&allowInsecure=1#TUIC-%s",
		info.Identity, info.PublicIP, info.TuicPort, info.ISP,
	)
}

func hysteria2Link(info LinkInfo) string {
	return fmt.Sprintf(
		"hysteria2://%s@%s:%d/?sni=www.bing.com&insecure=1#Hysteria2-%s",
		info.Identity, info.PublicIP, info.Hy2Port, info.ISP,
	)
}

func realityLink(info LinkInfo) string {
	return fmt.Sprintf(
		"vless://%s@%s:%d?encryption=none&flow=xtls-rprx-vision&security=reality&sni=www.nazhumi.com&fp=chrome&pbk=%s&type=tcp#Reality-%s",
		info.Identity, info.PublicIP, info.RealityPort, info.PublicKey, info.ISP,
	)
}

// argoLink points clients at the fronting domain on 443 while SNI,
// Host and path steer the websocket to this node through the tunnel.
func argoLink(info LinkInfo) string {
	return fmt.Sprintf(
		"vless://%s@%s:443?encryption=none&security=tls&sni=%s&type=ws&host=%s&path=%%2F%s-vless#Argo-%s",
		info.Identity, info.FrontDomain, info.TunnelDomain, info.TunnelDomain, info.Identity, info.ISP,
	)
}
