package app

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fallwind/s-node/api"
	"github.com/fallwind/s-node/config"
	"github.com/fallwind/s-node/core"
	"github.com/fallwind/s-node/cronjob"
	"github.com/fallwind/s-node/database"
	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"
	"github.com/fallwind/s-node/sub"
	"github.com/fallwind/s-node/telegram"
	"github.com/fallwind/s-node/web"

	"github.com/op/go-logging"
)

type APP struct {
	service.SettingService
	service.PanelService

	provisionService *service.ProvisionService
	serverService    *service.ServerService
	statsService     *service.StatsService
	tunnelService    *service.TunnelService

	webServer *web.Server
	subServer *sub.Server
	cronJob   *cronjob.CronJob

	core           *core.Core
	telegramConfig *telegram.Config
	isBotStarted   bool
}

func NewApp() *APP {
	return &APP{}
}

func (a *APP) Init() error {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	a.initLog()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		return err
	}

	a.initTelegramConfig()

	a.core = core.NewCore()
	a.tunnelService = service.NewTunnelService()
	a.provisionService = service.NewProvisionService(a.core, a.tunnelService)
	a.serverService = service.NewServerService(a.core, a.tunnelService)
	a.statsService = &service.StatsService{}

	a.cronJob = cronjob.NewCronJob()
	a.webServer = web.NewServer(api.ApiService{
		Provision: a.provisionService,
		Server:    a.serverService,
	})
	a.subServer = sub.NewServer(a.provisionService, a.statsService)

	return nil
}

// Start drives one full provisioning run: resolve and probe, bring the
// servers up, then launch the children and publish the subscription.
func (a *APP) Start() error {
	p, err := a.provisionService.Prepare(context.Background())
	if err != nil {
		return err
	}

	err = a.subServer.Start()
	if err != nil {
		return err
	}

	err = a.webServer.Start()
	if err != nil {
		return err
	}

	loc, err := a.SettingService.GetTimeLocation()
	if err != nil {
		return err
	}
	err = a.cronJob.Start(loc, a.SettingService.GetTrafficAge(), a.provisionService)
	if err != nil {
		return err
	}

	if a.telegramConfig != nil && a.telegramConfig.Enabled && !a.isBotStarted {
		go telegram.Start(context.Background(), a.telegramConfig, a)
		a.isBotStarted = true
	}

	err = a.provisionService.Launch(p)
	if err != nil {
		return err
	}

	if a.isBotStarted {
		telegram.Notify(context.Background(), "Node provisioned.\n"+strings.Join(a.SubscriptionLinks(), "\n"))
	}

	return nil
}

func (a *APP) Stop() {
	a.cronJob.Stop()
	err := a.subServer.Stop()
	if err != nil {
		logger.Warning("stop subscription server err: ", err)
	}
	err = a.webServer.Stop()
	if err != nil {
		logger.Warning("stop admin server err: ", err)
	}
	err = a.tunnelService.StopTunnel()
	if err != nil {
		logger.Warning("stop tunnel err: ", err)
	}
	err = a.core.Stop()
	if err != nil {
		logger.Warning("stop engine err: ", err)
	}
}

// Restart tears the run down and rebuilds it from scratch. The caller
// re-arms its engine exit watch afterwards.
func (a *APP) Restart() error {
	a.Stop()
	err := a.Init()
	if err != nil {
		return err
	}
	return a.Start()
}

// WaitEngine delivers the engine's exit code once it terminates. The
// channel belongs to the current engine process; it goes stale after
// Restart.
func (a *APP) WaitEngine() <-chan int {
	ch := make(chan int, 1)
	c := a.core
	go func() {
		ch <- c.Wait()
	}()
	return ch
}

func (a *APP) initLog() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func (a *APP) initTelegramConfig() {
	file, err := os.ReadFile("telegram_config.json")
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("telegram_config.json not found, Telegram bot is disabled")
			return
		}
		logger.Warning("Error reading telegram_config.json:", err)
		return
	}

	var cfg telegram.Config
	if err := json.Unmarshal(file, &cfg); err != nil {
		logger.Warning("Error unmarshalling telegram_config.json:", err)
		return
	}
	a.telegramConfig = &cfg
}

// RestartApp schedules a rerun through SIGHUP so the main loop stays
// the single owner of process lifetime.
func (a *APP) RestartApp() {
	err := a.PanelService.RestartPanel(time.Second)
	if err != nil {
		logger.Error("schedule restart failed: ", err)
	}
}

func (a *APP) SubscriptionLinks() []string {
	p := a.provisionService.Current()
	if p == nil {
		return nil
	}
	return a.provisionService.Links(p)
}

func (a *APP) SubscriptionURL() string {
	p := a.provisionService.Current()
	if p == nil {
		return ""
	}
	return a.provisionService.SubscriptionURL(p)
}

func (a *APP) GetStatus(request string) map[string]interface{} {
	return a.serverService.GetStatus(request)
}

func (a *APP) GetLogs(limit string, level string) []string {
	return a.serverService.GetLogs(limit, level)
}
