package handler

import (
	"net/http"

	"github.com/AhmadJamshaid/nust-marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetPublicProfile(c *gin.Context)
}

type userHandler struct {
	profiles service.ProfileService
}

func NewUserHandler(profiles service.ProfileService) UserHandler {
	return &userHandler{profiles: profiles}
}

func (h *userHandler) GetPublicProfile(c *gin.Context) {
	user, err := h.profiles.GetPublicProfile(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":  user.Address,
		"name":     user.Name,
		"whatsapp": user.Whatsapp,
	})
}
