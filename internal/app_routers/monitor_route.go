package approuters

import (
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/configuration"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	// Monitor API group
	monitorGroup := router.Group("/hc/api/monitor")
	{
		// GET /hc/api/monitor/stats - Get hub statistics
		monitorGroup.GET("/stats", container.MonitorHandler.GetHubStats)
	}
}
