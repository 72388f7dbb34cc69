package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/models"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// WebhookVerifyMiddleware validates the X-Shopify-Hmac-Sha256 signature of
// the raw body against the shared webhook secret. The body is restored for
// the downstream JSON binding.
func WebhookVerifyMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read webhook body")
			c.AbortWithStatusJSON(400, models.NewValidationProblem("body", "Unreadable request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !validSignature(secret, body, c.GetHeader("X-Shopify-Hmac-Sha256")) {
			log.Warn().
				Str("request_id", getRequestID(c)).
				Msg("Rejected webhook with invalid signature")
			c.AbortWithStatusJSON(401, models.NewProblemDetails(401, "Unauthorized", "Webhook signature verification failed"))
			return
		}

		c.Next()
	}
}

func validSignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(header)) == 1
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}
