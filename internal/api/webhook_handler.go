package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/interfaces"
	"alias-sync-service/internal/models"
)

// JournalReader exposes read access to the sync journal for the debug
// endpoint. Nil disables the endpoint.
type JournalReader interface {
	RecentWrites(ctx context.Context, limit int) ([]models.SyncRecord, error)
}

// WebhookHandler handles HTTP requests for the sync service
type WebhookHandler struct {
	processor     interfaces.EventProcessor
	journal       JournalReader
	webhookSecret string
}

// NewWebhookHandler creates a new webhook API handler
func NewWebhookHandler(processor interfaces.EventProcessor, journal JournalReader, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		processor:     processor,
		journal:       journal,
		webhookSecret: webhookSecret,
	}
}

// SetupRoutes sets up the HTTP routes for the sync service
func (h *WebhookHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/health", h.healthCheck)

	webhooks := r.Group("/webhooks")
	if h.webhookSecret != "" {
		webhooks.Use(WebhookVerifyMiddleware(h.webhookSecret))
	}
	webhooks.POST("/inventory-levels", h.handleInventoryLevel)

	if h.journal != nil {
		r.GET("/journal", h.recentJournal)
	}

	return r
}

// handleInventoryLevel processes one inventory_levels/update webhook. Every
// handled or ignored event is acknowledged with 200; only an orchestration
// failure reports 500, leaving any retry to the platform.
func (h *WebhookHandler) handleInventoryLevel(c *gin.Context) {
	var event models.InventoryLevelEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		log.Error().Err(err).Msg("Failed to bind inventory level webhook")
		c.JSON(http.StatusBadRequest, models.NewValidationProblem("request", "Invalid webhook payload"))
		return
	}

	if err := h.processor.HandleEvent(c.Request.Context(), &event); err != nil {
		log.Error().Err(err).
			Str("request_id", getRequestID(c)).
			Int64("inventory_item_id", event.InventoryItemID).
			Msg("Failed to process inventory level event")
		c.JSON(http.StatusInternalServerError, models.NewProblemDetails(500, "Processing Failed", "The event could not be processed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// recentJournal returns the newest corrective writes
func (h *WebhookHandler) recentJournal(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, models.NewValidationProblem("limit", "Limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	records, err := h.journal.RecentWrites(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read sync journal")
		c.JSON(http.StatusInternalServerError, models.NewProblemDetails(500, "Internal Server Error", "Failed to read sync journal"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// healthCheck handles health check requests
func (h *WebhookHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "alias-sync-service",
	})
}
