package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"wa-dashboard-go/internal/features/export"
	"wa-dashboard-go/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxInboundBody = 1 << 20

// WebhookSettingsRequest is the body of PUT /integrations/webhook
type WebhookSettingsRequest struct {
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// CreateEndpointRequest is the body of POST /ecommerce/webhooks
type CreateEndpointRequest struct {
	Name     string           `json:"name" binding:"required"`
	Event    webhook.Event    `json:"event"`
	Platform webhook.Platform `json:"platform"`
}

// UpdateEndpointRequest is the body of PATCH /ecommerce/webhooks/:id
type UpdateEndpointRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// GetWebhookSettings handles GET /integrations/webhook
func (h *Handler) GetWebhookSettings(c *gin.Context) {
	settings, err := h.Webhooks.Settings(c.Request.Context())
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

// UpdateWebhookSettings handles PUT /integrations/webhook
func (h *Handler) UpdateWebhookSettings(c *gin.Context) {
	var req WebhookSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_request"})
		return
	}

	settings, err := h.Webhooks.UpdateSettings(c.Request.Context(), req.URL, req.Active)
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settings})
}

// TestWebhook handles POST /integrations/webhook/test
func (h *Handler) TestWebhook(c *gin.Context) {
	outcome, err := h.Webhooks.Test(c.Request.Context())
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": outcome.Result == webhook.TestSuccess,
		"test":    outcome,
	})
}

// ListEndpoints handles GET /ecommerce/webhooks
func (h *Handler) ListEndpoints(c *gin.Context) {
	endpoints, err := h.Webhooks.ListEndpoints(c.Request.Context())
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "endpoints": endpoints})
}

// CreateEndpoint handles POST /ecommerce/webhooks
func (h *Handler) CreateEndpoint(c *gin.Context) {
	var req CreateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_request"})
		return
	}

	endpoint, err := h.Webhooks.CreateEndpoint(c.Request.Context(), req.Name, req.Event, req.Platform)
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "endpoint": endpoint})
}

// UpdateEndpoint handles PATCH /ecommerce/webhooks/:id
func (h *Handler) UpdateEndpoint(c *gin.Context) {
	var req UpdateEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_request"})
		return
	}

	endpoint, err := h.Webhooks.SetEndpointActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "endpoint": endpoint})
}

// DeleteEndpoint handles DELETE /ecommerce/webhooks/:id
func (h *Handler) DeleteEndpoint(c *gin.Context) {
	if err := h.Webhooks.DeleteEndpoint(c.Request.Context(), c.Param("id")); err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ExportEndpoints handles GET /ecommerce/webhooks/export
func (h *Handler) ExportEndpoints(c *gin.Context) {
	endpoints, err := h.Webhooks.ListEndpoints(c.Request.Context())
	if err != nil {
		webhookError(c, err)
		return
	}

	data, err := export.EndpointsWorkbook(endpoints)
	if err != nil {
		zap.S().Errorf("❌ [EXPORT] Failed to build workbook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate Excel", "code": "internal_error"})
		return
	}

	fileName := export.EndpointsFileName(time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, export.ContentType, data)
}

// ReceiveWebhook handles POST /api/webhook/:id from e-commerce platforms
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInboundBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Failed to read body", "code": "invalid_request"})
		return
	}

	relayed, err := h.Webhooks.Receive(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		webhookError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "relayed": relayed})
}

func webhookError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, webhook.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, webhook.ErrEndpointNotFound):
		status, code = http.StatusNotFound, "endpoint_not_found"
	case errors.Is(err, webhook.ErrEndpointInactive):
		status, code = http.StatusConflict, "endpoint_inactive"
	case errors.Is(err, webhook.ErrNoWebhookURL):
		status, code = http.StatusPreconditionFailed, "webhook_not_configured"
	case errors.Is(err, webhook.ErrRelayFailed):
		status, code = http.StatusBadGateway, "relay_failed"
	}

	if status >= http.StatusInternalServerError {
		zap.S().Errorf("❌ [WEBHOOK] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error(), "code": code})
}
