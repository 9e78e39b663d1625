package approuters

import (
	"github.com/AhmadJamshaid/nust-marketplace/internal/configuration"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/chat/api/users")
	{
		userRoute.GET("/profile/:address", container.UserHandler.GetPublicProfile)
	}
}
