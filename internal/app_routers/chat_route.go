package approuters

import (
	"github.com/AhmadJamshaid/nust-marketplace/internal/configuration"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/chat/api")
	{
		chatRoute.POST("/messages", container.ChatHandler.SendMessage)
		chatRoute.POST("/conversations/open", container.ChatHandler.OpenConversation)
		chatRoute.GET("/conversations/:conversationId/messages", container.ChatHandler.GetConversationMessages)
		chatRoute.POST("/conversations/:conversationId/read", container.ChatHandler.MarkRead)
		chatRoute.DELETE("/conversations/:conversationId", container.ChatHandler.DeleteConversation)
		chatRoute.GET("/inbox", container.ChatHandler.GetInbox)
	}
}
