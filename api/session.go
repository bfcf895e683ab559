package api

import (
	"net/http"

	"github.com/fallwind/s-node/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const loginUserKey = "LOGIN_USER"

// SetLoginUser stores the logged in username in the cookie session.
// maxAge is in minutes.
func SetLoginUser(c *gin.Context, username string, maxAge int) error {
	s := sessions.Default(c)
	s.Set(loginUserKey, username)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge * 60,
		HttpOnly: true,
	})
	return s.Save()
}

func GetLoginUser(c *gin.Context) string {
	s := sessions.Default(c)
	obj := s.Get(loginUserKey)
	if obj == nil {
		return ""
	}
	username, _ := obj.(string)
	return username
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != ""
}

func ClearSession(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		logger.Warning("unable to save session: ", err)
	}
}

func checkLogin(c *gin.Context) {
	if IsLogin(c) {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, Msg{
		Success: false,
		Msg:     "login required",
	})
}
