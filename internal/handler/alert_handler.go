package handler

import (
	"errors"
	"net/http"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/escalation"

	"github.com/gin-gonic/gin"
)

// AlertHandler handles emergency alert API endpoints
type AlertHandler interface {
	ListAlerts(c *gin.Context)
	GetAlert(c *gin.Context)
	AcknowledgeAlert(c *gin.Context)
	ResolveAlert(c *gin.Context)
}

type alertHandler struct {
	escalations *escalation.Controller
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(escalations *escalation.Controller) AlertHandler {
	return &alertHandler{
		escalations: escalations,
	}
}

type acknowledgeRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListAlerts returns every tracked alert, resolved ones included
func (h *alertHandler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alerts": h.escalations.Snapshot(),
	})
}

// GetAlert returns one alert by id
func (h *alertHandler) GetAlert(c *gin.Context) {
	alertID := c.Param("alertId")

	alert, err := h.escalations.Get(alertID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Alert not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alert": alert,
	})
}

// AcknowledgeAlert marks an alert acknowledged on behalf of a responder
func (h *alertHandler) AcknowledgeAlert(c *gin.Context) {
	alertID := c.Param("alertId")

	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id is required",
		})
		return
	}

	if err := h.escalations.Acknowledge(alertID, req.UserID); err != nil {
		h.writeAlertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alert acknowledged",
	})
}

// ResolveAlert closes an alert's lifecycle
func (h *alertHandler) ResolveAlert(c *gin.Context) {
	alertID := c.Param("alertId")

	if err := h.escalations.Resolve(alertID); err != nil {
		h.writeAlertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Alert resolved",
	})
}

func (h *alertHandler) writeAlertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, escalation.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Alert not found",
		})
	case errors.Is(err, escalation.ErrAlertAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Alert already resolved",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update alert",
		})
	}
}
