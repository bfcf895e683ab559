package api

import (
	"strconv"
	"time"

	"github.com/fallwind/s-node/logger"
	"github.com/fallwind/s-node/service"
	"github.com/fallwind/s-node/util/common"

	"github.com/gin-gonic/gin"
)

type ApiService struct {
	service.SettingService
	service.UserService
	service.StatsService
	service.PanelService
	Provision *service.ProvisionService
	Server    *service.ServerService
}

func (a *ApiService) Login(c *gin.Context) {
	remoteIP := getRemoteIp(c)
	loginUser, err := a.UserService.Login(c.Request.FormValue("user"), c.Request.FormValue("pass"), remoteIP)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}

	sessionMaxAge, err := a.SettingService.GetSessionMaxAge()
	if err != nil {
		logger.Info("unable to get session max age, using default")
		sessionMaxAge = 60
	}

	err = SetLoginUser(c, loginUser, sessionMaxAge)
	if err == nil {
		logger.Info("user ", loginUser, " login success")
	} else {
		logger.Warning("login failed: ", err)
	}

	jsonMsg(c, "", nil)
}

func (a *ApiService) Logout(c *gin.Context) {
	loginUser := GetLoginUser(c)
	if loginUser != "" {
		logger.Infof("user %s logout", loginUser)
	}
	ClearSession(c)
	jsonMsg(c, "", nil)
}

func (a *ApiService) ChangePass(c *gin.Context) {
	id := c.Request.FormValue("id")
	oldPass := c.Request.FormValue("oldPass")
	newUsername := c.Request.FormValue("newUsername")
	newPass := c.Request.FormValue("newPass")
	err := a.UserService.ChangePass(id, oldPass, newUsername, newPass)
	if err == nil {
		logger.Info("change user credentials success")
		jsonMsg(c, "save", nil)
	} else {
		logger.Warning("change user credentials failed: ", err)
		jsonMsg(c, "", err)
	}
}

func (a *ApiService) GetStatus(c *gin.Context) {
	request := c.Query("r")
	if request == "" {
		request = "cpu,mem,sys,engine,tunnel"
	}
	result := a.Server.GetStatus(request)
	jsonObj(c, result, nil)
}

func (a *ApiService) GetLogs(c *gin.Context) {
	count := c.Query("c")
	level := c.Query("l")
	logs := a.Server.GetLogs(count, level)
	jsonObj(c, logs, nil)
}

func (a *ApiService) GetSettings(c *gin.Context) {
	ports, err := a.SettingService.GetPorts()
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	argoPort, err := a.SettingService.GetArgoPort()
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	data := map[string]interface{}{
		"ports":         ports,
		"singlePortUDP": a.SettingService.GetSinglePortUDP(),
		"argoPort":      argoPort,
		"argoFixed":     a.SettingService.GetArgoToken() != "",
		"argoDomain":    a.SettingService.GetArgoDomain(),
		"adminAddr":     a.SettingService.GetAdminAddr(),
		"trafficAge":    a.SettingService.GetTrafficAge(),
	}
	jsonObj(c, data, nil)
}

// GetSub reports the published node URIs of the current run.
func (a *ApiService) GetSub(c *gin.Context) {
	p := a.Provision.Current()
	if p == nil {
		jsonMsg(c, "", common.NewError("node is not provisioned yet"))
		return
	}
	data := map[string]interface{}{
		"mode":   p.Plan.Mode(),
		"isp":    p.ISP,
		"links":  a.Provision.Links(p),
		"subURI": a.Provision.SubscriptionURL(p),
	}
	jsonObj(c, data, nil)
}

func (a *ApiService) GetRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 20
	}
	runs, err := a.Provision.GetRuns(limit)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	jsonObj(c, runs, nil)
}

func (a *ApiService) GetStats(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 100
	}
	visits, err := a.StatsService.GetStats(limit)
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	total, err := a.StatsService.TotalVisits()
	if err != nil {
		jsonMsg(c, "", err)
		return
	}
	data := map[string]interface{}{
		"total":  total,
		"visits": visits,
	}
	jsonObj(c, data, nil)
}

// RefreshSub re-scrapes the tunnel hostname and rewrites the
// subscription document on demand.
func (a *ApiService) RefreshSub(c *gin.Context) {
	p := a.Provision.Current()
	if p == nil {
		jsonMsg(c, "refresh", common.NewError("node is not provisioned yet"))
		return
	}
	a.Provision.RefreshTunnelDomain()
	err := a.Provision.WriteSubscription(p)
	jsonMsg(c, "refresh", err)
}

func (a *ApiService) RestartApp(c *gin.Context) {
	err := a.PanelService.RestartPanel(3 * time.Second)
	jsonMsg(c, "restartApp", err)
}
