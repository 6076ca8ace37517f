package approuters

import (
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/configuration"

	"github.com/gin-gonic/gin"
)

// AlertRouters sets up emergency alert API routes
func AlertRouters(router *gin.Engine, container *configuration.Container) {
	alertGroup := router.Group("/hc/api/alerts")
	{
		alertGroup.GET("", container.AlertHandler.ListAlerts)
		alertGroup.GET("/:alertId", container.AlertHandler.GetAlert)
		alertGroup.POST("/:alertId/acknowledge", container.AlertHandler.AcknowledgeAlert)
		alertGroup.POST("/:alertId/resolve", container.AlertHandler.ResolveAlert)
	}
}
