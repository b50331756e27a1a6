package middleware

import (
	"net/http"
	"strings"

	"wa-dashboard-go/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClaimsKey is the gin context key holding the admin JWT claims
const ClaimsKey = "claims"

// CORSMiddleware configures CORS for specified domains
func CORSMiddleware(allowedDomains []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Check if origin is allowed
		allowed := false
		for _, domain := range allowedDomains {
			if domain == "*" || origin == domain {
				allowed = true
				break
			}
		}

		if origin != "" {
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				zap.S().Warnf("⚠️ [CORS] Blocked origin '%s' (allowed: %v)", origin, allowedDomains)
			}
		}

		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, x-api-key, Origin, Referer, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		// Handle preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AdminRequired accepts either the shared API key or a Bearer JWT issued by
// /auth/login. With neither an API key nor a JWT secret configured, every
// request is let through.
func AdminRequired(apiKey, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" && jwtSecret == "" {
			c.Next()
			return
		}

		// Check header first, then query parameter (browsers cannot set
		// headers on WebSocket upgrades)
		reqAPIKey := c.GetHeader("x-api-key")
		if reqAPIKey == "" {
			reqAPIKey = c.Query("api_key")
		}
		if apiKey != "" && reqAPIKey == apiKey {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if jwtSecret != "" && token != "" {
			claims, err := utils.ValidateToken(token, jwtSecret)
			if err == nil {
				c.Set(ClaimsKey, claims)
				c.Next()
				return
			}
			zap.S().Debugf("[AUTH] Rejected token: %v", err)
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Unauthorized: valid x-api-key or bearer token required",
			"code":    "unauthorized",
		})
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
