package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"multichat/internal/config"
	"multichat/internal/interfaces/httpserver/routes/v1/chat"
)

type V1Route struct {
	chat *chat.ChatRoute
}

func NewV1Route(chat *chat.ChatRoute) *V1Route {
	return &V1Route{chat: chat}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Route.chat.RegisterRouter(v1Router)
}

// GetVersion returns the build version of the server.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": config.Version})
}
