package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/notify"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

func HandleLocalsendV2InfoGet(c *gin.Context) {
	selfDevice := models.GetSelfDevice()
	if selfDevice == nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Device info not available"))
		return
	}
	c.JSON(http.StatusOK, types.DeviceInfo{
		Alias:       selfDevice.Alias,
		Version:     selfDevice.Version,
		DeviceModel: selfDevice.DeviceModel,
		DeviceType:  selfDevice.DeviceType,
		Fingerprint: selfDevice.Fingerprint,
		Port:        selfDevice.Port,
		Protocol:    selfDevice.Protocol,
		Download:    selfDevice.Download,
	})
}

// UserStatus reports liveness and whether the notify websocket is available, for local clients.
func UserStatus(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"running":           true,
		"notify_ws_enabled": notify.NotifyWSEnabled(),
	}))
}
