package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wa-dashboard-go/internal/api/handlers"
	"wa-dashboard-go/internal/api/middleware"
	"wa-dashboard-go/internal/api/websocket"
	"wa-dashboard-go/internal/config"
	"wa-dashboard-go/internal/features/monitor"
	"wa-dashboard-go/internal/webhook"
	"wa-dashboard-go/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	Config    *config.Config
	Router    *gin.Engine
	WSHub     *websocket.Hub
	WAManager *whatsapp.Manager
	Monitor   *monitor.MonitorService
	Handler   *handlers.Handler

	httpServer *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, waManager *whatsapp.Manager, mon *monitor.MonitorService, webhooks *webhook.Service) *Server {
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	wsHub := websocket.NewHub(cfg.AllowedDomains)
	handler := handlers.NewHandler(cfg, waManager, mon, webhooks, wsHub)

	server := &Server{
		Config:    cfg,
		Router:    router,
		WSHub:     wsHub,
		WAManager: waManager,
		Monitor:   mon,
		Handler:   handler,
	}

	if mon != nil {
		mon.OnChange = func(snap monitor.Snapshot) {
			wsHub.Broadcast("instance-status", snap)
		}
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.Router.Use(middleware.CORSMiddleware(s.Config.AllowedDomains))

	// Health check endpoints (no auth required)
	s.Router.GET("/", s.Handler.HealthCheck)
	s.Router.GET("/status", s.Handler.GetStatus)

	s.Router.POST("/auth/login", s.Handler.Login)

	// Inbound e-commerce events; the endpoint ID is the credential
	s.Router.POST("/api/webhook/:id", s.Handler.ReceiveWebhook)

	protected := s.Router.Group("")
	protected.Use(middleware.AdminRequired(s.Config.APIKey, s.Config.JWTSecret))
	{
		protected.GET("/ws", s.WSHub.HandleWebSocket)

		sessions := protected.Group("/whatsapp/sessions")
		sessions.POST("", s.Handler.StartSession)
		sessions.GET("", s.Handler.ListSessions)
		sessions.GET("/:key", s.Handler.GetSession)
		sessions.GET("/:key/qr.png", s.Handler.GetSessionQR)

		integration := protected.Group("/integrations/webhook")
		integration.GET("", s.Handler.GetWebhookSettings)
		integration.PUT("", s.Handler.UpdateWebhookSettings)
		integration.POST("/test", s.Handler.TestWebhook)

		ecommerce := protected.Group("/ecommerce/webhooks")
		ecommerce.GET("", s.Handler.ListEndpoints)
		ecommerce.POST("", s.Handler.CreateEndpoint)
		ecommerce.GET("/export", s.Handler.ExportEndpoints)
		ecommerce.PATCH("/:id", s.Handler.UpdateEndpoint)
		ecommerce.DELETE("/:id", s.Handler.DeleteEndpoint)
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	go s.WSHub.Run()
	go s.forwardEvents()

	zap.S().Infof("✅ WhatsApp Dashboard Server listening on port %s", s.Config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and the WebSocket hub
func (s *Server) Shutdown(ctx context.Context) error {
	s.WSHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// forwardEvents forwards session events to WebSocket clients until the
// manager's channels are closed
func (s *Server) forwardEvents() {
	qrChan := s.WAManager.QRChannel()
	statusChan := s.WAManager.StatusChannel()

	for qrChan != nil || statusChan != nil {
		select {
		case qr, ok := <-qrChan:
			if !ok {
				qrChan = nil
				continue
			}
			s.WSHub.Broadcast("qr-image", qr)

		case status, ok := <-statusChan:
			if !ok {
				statusChan = nil
				continue
			}
			s.WSHub.Broadcast("status-update", status)
		}
	}
}
