package handlers

import (
	"errors"
	"net/http"
	"strings"

	"wa-dashboard-go/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

// StartSessionRequest is the body of POST /whatsapp/sessions
type StartSessionRequest struct {
	Key string `json:"key"`
}

// StartSession handles POST /whatsapp/sessions. It blocks for the QR delay.
func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "code": "invalid_request"})
		return
	}

	state, err := h.WAManager.Start(c.Request.Context(), req.Key)
	if err != nil {
		c.JSON(bootstrapStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    whatsapp.ErrorCode(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": state})
}

// ListSessions handles GET /whatsapp/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": h.WAManager.All()})
}

// GetSession handles GET /whatsapp/sessions/:key
func (h *Handler) GetSession(c *gin.Context) {
	state, ok := h.WAManager.Get(c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found", "code": "session_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": state})
}

// GetSessionQR handles GET /whatsapp/sessions/:key/qr.png
func (h *Handler) GetSessionQR(c *gin.Context) {
	state, ok := h.WAManager.Get(c.Param("key"))
	if !ok || state.QRCode == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No QR code for session", "code": "session_not_found"})
		return
	}

	if strings.HasPrefix(state.QRCode, "http://") || strings.HasPrefix(state.QRCode, "https://") {
		c.Redirect(http.StatusFound, state.QRCode)
		return
	}

	mime, data, err := whatsapp.DecodeDataURI(state.QRCode)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error(), "code": "invalid_qr_payload"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mime, data)
}

func bootstrapStatus(err error) int {
	switch {
	case errors.Is(err, whatsapp.ErrEmptyKey):
		return http.StatusBadRequest
	case errors.Is(err, whatsapp.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, whatsapp.ErrMissingQRURL), errors.Is(err, whatsapp.ErrQRNotFound):
		return http.StatusFailedDependency
	default:
		return http.StatusBadGateway
	}
}
