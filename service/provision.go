package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/core"
	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/database/model"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/util"
	"github.com/fallwind/s-node/util/common"
)

const (
	realityKeyFileName = "key.txt"
	engineLogFileName  = "singbox.log"
	subFileName        = "sub.txt"
	listFileName       = "list.txt"
)

// Provision is the resolved state of one provisioning run, threaded
// through the pipeline stages instead of living in globals.
type Provision struct {
	Plan         *PortPlan
	Ports        []string
	ArgoPort     int
	Dir          string
	PublicIP     string
	FrontDomain  string
	Identity     string
	PrivateKey   string
	PublicKey    string
	CertPath     string
	KeyPath      string
	ISP          string
	TunnelDomain string
	EnginePath   string
	TunnelPath   string
	ConfigPath   string
	EngineLog    string
}

func (p *Provision) SubPath() string {
	return filepath.Join(p.Dir, subFileName)
}

// ProvisionService drives the whole pipeline: resolve settings, probe
// the network, fetch assets, load credentials, synthesize the engine
// config, supervise the children and publish the subscription.
type ProvisionService struct {
	SettingService
	NetworkService
	AssetService
	IdentityService
	CertService
	ConfigService

	core   *core.Core
	tunnel *TunnelService

	mu      sync.Mutex
	current *Provision
}

func NewProvisionService(c *core.Core, tunnel *TunnelService) *ProvisionService {
	return &ProvisionService{
		core:   c,
		tunnel: tunnel,
	}
}

// Current returns the provision of this run, nil before Prepare.
func (s *ProvisionService) Current() *Provision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// prepareDir clears the runtime directory. The identity and reality
// key files survive the wipe unless a fresh start is requested; they
// are what make restarts hand out the same credentials.
func (s *ProvisionService) prepareDir() (string, error) {
	dir := config.GetWorkPath()

	preserved := map[string][]byte{}
	if !s.IsFresh() {
		for _, name := range []string{identityFileName, realityKeyFileName} {
			if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
				preserved[name] = data
			}
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	for name, data := range preserved {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// ensureRealityKeys loads the cached keypair output or generates it
// with the engine binary. A generation failure is fatal, unparseable
// output is not: the run continues with empty keys and a warning, the
// reality entry is then unusable but everything else still works.
func (s *ProvisionService) ensureRealityKeys(dir string, enginePath string) (string, string, error) {
	keyFile := filepath.Join(dir, realityKeyFileName)

	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", "", err
		}
		text, genErr := core.GenerateRealityKeypair(enginePath)
		if genErr != nil {
			return "", "", genErr
		}
		if err := os.WriteFile(keyFile, []byte(text), 0600); err != nil {
			return "", "", err
		}
		keyData = []byte(text)
	}

	privateKey, publicKey, ok := core.ParseRealityKeypair(string(keyData))
	if !ok {
		logger.Warning("reality keypair output not recognized, continuing with empty keys")
	}
	return privateKey, publicKey, nil
}

// Prepare runs every stage that must succeed before any child process
// starts. Failures here are fatal for the run.
func (s *ProvisionService) Prepare(ctx context.Context) (*Provision, error) {
	ports, err := s.GetPorts()
	if err != nil {
		return nil, err
	}
	plan, err := ResolvePortPlan(ports, s.GetSinglePortUDP())
	if err != nil {
		return nil, err
	}
	logger.Infof("found %d ports: %s", len(ports), strings.Join(ports, " "))

	argoPort, err := s.GetArgoPort()
	if err != nil {
		return nil, err
	}

	dir, err := s.prepareDir()
	if err != nil {
		return nil, err
	}

	logger.Info("fetching public IP")
	publicIP, err := s.GetPublicIP(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("public IP: ", publicIP)

	frontDomain := s.SelectFrontDomain(ctx)
	logger.Info("front domain: ", frontDomain)

	enginePath, err := s.EnsureEngine(ctx, dir)
	if err != nil {
		return nil, err
	}
	tunnelPath, err := s.EnsureTunnel(ctx, dir)
	if err != nil {
		return nil, err
	}

	identity, err := s.LoadIdentity(dir)
	if err != nil {
		return nil, err
	}
	logger.Info("identity: ", identity)

	p := &Provision{
		Plan:         plan,
		Ports:        ports,
		ArgoPort:     argoPort,
		Dir:          dir,
		PublicIP:     publicIP,
		FrontDomain:  frontDomain,
		Identity:     identity,
		EnginePath:   enginePath,
		TunnelPath:   tunnelPath,
		TunnelDomain: s.GetArgoDomain(),
	}

	if !plan.SinglePort {
		privateKey, publicKey, err := s.ensureRealityKeys(dir, enginePath)
		if err != nil {
			return nil, err
		}
		p.PrivateKey = privateKey
		p.PublicKey = publicKey
	}

	certPath, keyPath, err := s.EnsureCerts(dir)
	if err != nil {
		return nil, err
	}
	p.CertPath = certPath
	p.KeyPath = keyPath

	p.ISP = s.GetISPLabel(ctx)

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	return p, nil
}

// Launch synthesizes the engine config, starts the engine and the
// tunnel, resolves the tunnel hostname and publishes the subscription.
// The engine gets a short grace period; a child that is already gone
// gets one foreground rerun so its complaint reaches the operator, and
// the error propagates from there.
func (s *ProvisionService) Launch(p *Provision) error {
	configPath, err := s.Generate(p.Dir, p)
	if err != nil {
		return err
	}
	p.ConfigPath = configPath
	logger.Info("engine config generated")

	p.EngineLog = filepath.Join(p.Dir, engineLogFileName)
	if err := s.core.Start(p.EnginePath, configPath, p.EngineLog); err != nil {
		return err
	}

	time.Sleep(2 * time.Second)
	if s.core.Exited() {
		logger.Error("engine failed to start")
		for _, line := range core.TailLog(p.EngineLog, 10) {
			fmt.Println(line)
		}
		s.core.RunForeground(p.EnginePath, configPath)
		return common.NewError("engine failed to start")
	}
	logger.Info("engine started, PID: ", s.core.PID())

	token := s.GetArgoToken()
	if token != "" {
		logger.Info("starting fixed tunnel")
	} else {
		logger.Info("starting quick tunnel")
	}
	if err := s.tunnel.StartTunnel(p.TunnelPath, p.Dir, token, p.ArgoPort); err != nil {
		return err
	}

	if token == "" {
		domain, ok := s.tunnel.WaitForQuickDomain(30, time.Second)
		if ok {
			s.mu.Lock()
			p.TunnelDomain = domain
			s.mu.Unlock()
			logger.Info("tunnel domain: ", domain)
		} else {
			logger.Warning("failed to get tunnel domain")
		}
	} else if p.TunnelDomain != "" {
		logger.Info("tunnel domain: ", p.TunnelDomain)
	} else {
		logger.Warning("ARGO_DOMAIN not set; subscription will omit the tunnel entry")
	}

	if err := s.WriteSubscription(p); err != nil {
		return err
	}

	s.recordRun(p)
	s.printBanner(p)
	return nil
}

// Links renders the current URI set.
func (s *ProvisionService) Links(p *Provision) []string {
	s.mu.Lock()
	tunnelDomain := p.TunnelDomain
	s.mu.Unlock()
	return util.SubscriptionLinks(util.LinkInfo{
		Identity:     p.Identity,
		PublicIP:     p.PublicIP,
		ISP:          p.ISP,
		FrontDomain:  p.FrontDomain,
		TunnelDomain: tunnelDomain,
		PublicKey:    p.PublicKey,
		TuicPort:     p.Plan.Tuic,
		Hy2Port:      p.Plan.Hy2,
		RealityPort:  p.Plan.Reality,
	})
}

// WriteSubscription renders the URI document into sub.txt and its
// list.txt twin, newline joined with a trailing newline.
func (s *ProvisionService) WriteSubscription(p *Provision) error {
	content := strings.Join(s.Links(p), "\n") + "\n"
	for _, name := range []string{listFileName, subFileName} {
		if err := os.WriteFile(filepath.Join(p.Dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// RefreshTunnelDomain re-scrapes the quick tunnel log and re-publishes
// the subscription when the assigned hostname moved. Quick tunnels get
// reassigned occasionally; nothing else changes, so no restart.
func (s *ProvisionService) RefreshTunnelDomain() {
	p := s.Current()
	if p == nil || !s.tunnel.IsQuick() {
		return
	}

	domain, ok := s.tunnel.ScrapeQuickDomain()
	if !ok {
		return
	}

	s.mu.Lock()
	changed := domain != p.TunnelDomain
	if changed {
		p.TunnelDomain = domain
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	logger.Infof("tunnel domain changed to %s, refreshing subscription", domain)
	if err := s.WriteSubscription(p); err != nil {
		logger.Warning("refresh subscription failed: ", err)
	}
}

func (s *ProvisionService) SubscriptionURL(p *Provision) string {
	return fmt.Sprintf("http://%s:%d/sub", p.PublicIP, p.Plan.HTTP)
}

func (s *ProvisionService) recordRun(p *Provision) {
	db := database.GetDB()
	if db == nil {
		return
	}
	run := &model.Run{
		DateTime:     time.Now().Unix(),
		Mode:         p.Plan.Mode(),
		Ports:        strings.Join(p.Ports, " "),
		PublicIP:     p.PublicIP,
		Isp:          p.ISP,
		FrontDomain:  p.FrontDomain,
		TunnelDomain: p.TunnelDomain,
		EnginePID:    s.core.PID(),
	}
	if err := db.Create(run).Error; err != nil {
		logger.Warning("record run failed: ", err)
	}
}

// GetRuns returns the newest provisioning runs, most recent first.
func (s *ProvisionService) GetRuns(limit int) ([]model.Run, error) {
	db := database.GetDB()
	var runs []model.Run
	err := db.Order("id desc").Limit(limit).Find(&runs).Error
	return runs, err
}

func (s *ProvisionService) printBanner(p *Provision) {
	fmt.Print("\n===================================================\n")
	fmt.Println("mode:", p.Plan.Mode())
	fmt.Print("\nproxy nodes:\n")
	if p.Plan.Tuic != 0 {
		fmt.Printf("  - TUIC (UDP): %s:%d\n", p.PublicIP, p.Plan.Tuic)
	}
	if p.Plan.Hy2 != 0 {
		fmt.Printf("  - HY2 (UDP): %s:%d\n", p.PublicIP, p.Plan.Hy2)
	}
	if p.Plan.Reality != 0 {
		fmt.Printf("  - Reality (TCP): %s:%d\n", p.PublicIP, p.Plan.Reality)
	}
	if p.TunnelDomain != "" {
		fmt.Printf("  - Argo (WS): %s\n", p.TunnelDomain)
	}
	fmt.Print("\n")
	fmt.Printf("subscription URL: %s\n", s.SubscriptionURL(p))
	fmt.Print("===================================================\n\n")
}
