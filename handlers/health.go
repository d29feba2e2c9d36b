package handlers

import (
	"net/http"

	"centromedico/utils"

	"github.com/gin-gonic/gin"
)

// RootHandler identifies the service.
func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "Centro Medico voice assistant"})
}

// HealthHandler reports the latest dependency snapshot. A failing cache degrades
// the status but the service keeps answering calls.
func HealthHandler(c *gin.Context) {
	h := utils.GetHealthStatus()
	status := "healthy"
	if h.Redis != nil && !*h.Redis {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"activeCalls": h.ActiveCalls,
		"redis":       h.Redis,
		"checkedAt":   h.CheckedAt,
	})
}
