package api

import (
	"strings"

	"github.com/fallwind/s-node/util/common"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	ApiService
}

func NewAPIHandler(g *gin.RouterGroup, a ApiService) {
	h := &APIHandler{
		ApiService: a,
	}
	h.initRouter(g)
}

func (a *APIHandler) initRouter(g *gin.RouterGroup) {
	g.Use(func(c *gin.Context) {
		path := c.Request.URL.Path
		if !strings.HasSuffix(path, "login") && !strings.HasSuffix(path, "logout") {
			checkLogin(c)
		}
	})
	g.POST("/:postAction", a.postHandler)
	g.GET("/:getAction", a.getHandler)
}

func (a *APIHandler) postHandler(c *gin.Context) {
	action := c.Param("postAction")

	switch action {
	case "login":
		a.ApiService.Login(c)
	case "changePass":
		a.ApiService.ChangePass(c)
	case "refresh":
		a.ApiService.RefreshSub(c)
	case "restartApp":
		a.ApiService.RestartApp(c)
	default:
		jsonMsg(c, "failed", common.NewError("unknown action: ", action))
	}
}

func (a *APIHandler) getHandler(c *gin.Context) {
	action := c.Param("getAction")

	switch action {
	case "logout":
		a.ApiService.Logout(c)
	case "status":
		a.ApiService.GetStatus(c)
	case "logs":
		a.ApiService.GetLogs(c)
	case "settings":
		a.ApiService.GetSettings(c)
	case "sub":
		a.ApiService.GetSub(c)
	case "runs":
		a.ApiService.GetRuns(c)
	case "stats":
		a.ApiService.GetStats(c)
	default:
		jsonMsg(c, "failed", common.NewError("unknown action: ", action))
	}
}
