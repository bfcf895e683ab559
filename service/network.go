package service

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/util/common"
)

// probeUserAgent is sent on every outbound probe; several of the
// queried services answer differently to default Go user agents.
const probeUserAgent = "curl/7.79.1"

var defaultIPProviders = []string{
	"https://ipv4.ip.sb",
	"https://api.ipify.org",
}

var defaultFrontDomains = []string{
	"cf.090227.xyz",
	"cf.877774.xyz",
	"cf.130519.xyz",
	"cf.008500.xyz",
	"store.ubi.com",
	"saas.sin.fan",
}

const defaultMetaURL = "https://speed.cloudflare.com/meta"

// NetworkService probes the outside world: the node's public address,
// a reachable fronting domain and the ISP label for node names. The
// URL fields default when empty.
type NetworkService struct {
	IPProviders  []string
	FrontDomains []string
	MetaURL      string
}

// fetchText does a GET and returns the trimmed body, or "" on any
// failure. Probe failures are expected and never abort anything by
// themselves.
func fetchText(ctx context.Context, url string, timeout time.Duration) string {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func (s *NetworkService) ipProviders() []string {
	if len(s.IPProviders) > 0 {
		return s.IPProviders
	}
	return defaultIPProviders
}

func (s *NetworkService) frontDomains() []string {
	if len(s.FrontDomains) > 0 {
		return s.FrontDomains
	}
	return defaultFrontDomains
}

func (s *NetworkService) metaURL() string {
	if s.MetaURL != "" {
		return s.MetaURL
	}
	return defaultMetaURL
}

// GetPublicIP asks the providers in order and returns the first
// answer. No answer at all is fatal for provisioning.
func (s *NetworkService) GetPublicIP(ctx context.Context) (string, error) {
	for _, provider := range s.ipProviders() {
		if ip := fetchText(ctx, provider, 5*time.Second); ip != "" {
			return ip, nil
		}
	}
	return "", common.NewError("unable to get public IP")
}

// probeDomain reports whether the domain answers HTTPS at all; the
// status does not matter, only that something talked back.
func probeDomain(ctx context.Context, domain string, timeout time.Duration) bool {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, "https://"+domain, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// SelectFrontDomain probes the candidate fronting domains and picks a
// random responsive one, falling back to the first candidate so the
// subscription always has a front.
func (s *NetworkService) SelectFrontDomain(ctx context.Context) string {
	domains := s.frontDomains()
	var available []string
	for _, domain := range domains {
		if probeDomain(ctx, domain, 2*time.Second) {
			available = append(available, domain)
		}
	}
	if len(available) > 0 {
		return available[rand.Intn(len(available))]
	}
	return domains[0]
}

type cfMeta struct {
	AsOrganization string `json:"asOrganization"`
	AsName         string `json:"asName"`
	ClientCountry  string `json:"clientCountry"`
}

// GetISPLabel builds the "org-country" tag appended to node names.
// Everything here is best effort; the default is "Node".
func (s *NetworkService) GetISPLabel(ctx context.Context) string {
	body := fetchText(ctx, s.metaURL(), 2*time.Second)
	if body == "" {
		return "Node"
	}

	var meta cfMeta
	if err := json.Unmarshal([]byte(body), &meta); err != nil {
		logger.Debug("ISP meta parse failed: ", err)
		return "Node"
	}

	org := meta.AsOrganization
	if org == "" {
		org = meta.AsName
	}
	if org == "" && meta.ClientCountry == "" {
		return "Node"
	}
	return strings.Trim(org+"-"+meta.ClientCountry, "-")
}
