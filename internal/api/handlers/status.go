package handlers

import (
	"net/http"
	"time"

	"wa-dashboard-go/internal/api/websocket"
	"wa-dashboard-go/internal/config"
	"wa-dashboard-go/internal/features/monitor"
	"wa-dashboard-go/internal/webhook"
	"wa-dashboard-go/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	Config    *config.Config
	WAManager *whatsapp.Manager
	Monitor   *monitor.MonitorService
	Webhooks  *webhook.Service
	WSHub     *websocket.Hub
}

// NewHandler creates a new handler with dependencies
func NewHandler(cfg *config.Config, waManager *whatsapp.Manager, mon *monitor.MonitorService, webhooks *webhook.Service, wsHub *websocket.Hub) *Handler {
	return &Handler{
		Config:    cfg,
		WAManager: waManager,
		Monitor:   mon,
		Webhooks:  webhooks,
		WSHub:     wsHub,
	}
}

// HealthCheck handles GET /
func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "WhatsApp Dashboard Server is Running! 🚀")
}

// GetStatus handles GET /status
func (h *Handler) GetStatus(c *gin.Context) {
	response := gin.H{
		"status":    "running",
		"instance":  gin.H{"configured": h.Config.InstanceURL != ""},
		"sessions":  publicSessions(h.WAManager.All()),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.Monitor != nil {
		response["instance"] = gin.H{
			"configured": h.Config.InstanceURL != "",
			"health":     h.Monitor.Status(),
		}
	}
	if h.WSHub != nil {
		response["dashboards"] = h.WSHub.ClientCount()
	}

	c.JSON(http.StatusOK, response)
}

// publicSessions strips the pairing payload and error detail; /status is
// served without authentication.
func publicSessions(states []whatsapp.SessionState) []whatsapp.SessionState {
	for i := range states {
		states[i].QRCode = ""
		states[i].Error = ""
	}
	return states
}
