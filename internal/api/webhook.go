// Package api exposes the ingestion endpoints that feed the work queue:
// provider webhooks and a test endpoint for exercising the pipeline without
// a real provider callback.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/internal/queue"
	"github.com/autoreplyx/backend/internal/repository"
	"github.com/autoreplyx/backend/pkg/logger"
)

// WebhookHandler enqueues incoming events from channel webhooks
type WebhookHandler struct {
	queue       *queue.Queue
	channels    repository.ChannelRepository
	verifyToken string
	log         *logger.Logger
}

func NewWebhookHandler(q *queue.Queue, channels repository.ChannelRepository, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		queue:       q,
		channels:    channels,
		verifyToken: verifyToken,
		log:         log,
	}
}

// RegisterRoutes registers the webhook endpoints
func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhook/test", h.TestMessage)
	router.GET("/webhook/instagram", h.VerifyInstagram)
	router.POST("/webhook/instagram", h.ReceiveInstagram)
	router.GET("/queue/stats", h.QueueStats)
}

// TestMessageRequest is the body of the pipeline test endpoint
type TestMessageRequest struct {
	UserID    uint   `json:"userId" binding:"required"`
	ChannelID uint   `json:"channelId" binding:"required"`
	Channel   string `json:"channel" binding:"required"`
	SenderID  string `json:"senderId" binding:"required"`
	Text      string `json:"text" binding:"required"`
	Type      string `json:"type"`
}

// TestMessage enqueues a synthetic event so operators can exercise the
// pipeline end to end without a provider callback.
func (h *WebhookHandler) TestMessage(c *gin.Context) {
	var req TestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventType := req.Type
	if eventType == "" {
		eventType = models.EventTypeMessage
	}

	event := models.IncomingEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Channel:   req.Channel,
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
		SenderID:  req.SenderID,
		Text:      req.Text,
		Timestamp: time.Now().UnixMilli(),
		IsTest:    true,
	}

	if err := h.enqueue(c, &event); err != nil {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"eventId": event.ID, "status": "queued"})
}

// VerifyInstagram answers the Meta webhook subscription handshake
func (h *WebhookHandler) VerifyInstagram(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// instagramWebhookPayload is the subset of the Meta callback the pipeline
// consumes
type instagramWebhookPayload struct {
	Entry []struct {
		ID        string `json:"id"` // Instagram account id
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Timestamp int64 `json:"timestamp"`
			Message   struct {
				MID    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ReceiveInstagram maps Meta callback entries onto queue events. The account
// id on each entry resolves the owning channel; entries for unknown accounts
// are skipped, not failed, since Meta retries the whole batch on non-200.
func (h *WebhookHandler) ReceiveInstagram(c *gin.Context) {
	var payload instagramWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	queued := 0
	for _, entry := range payload.Entry {
		channel, err := h.channels.FindByAccountID(c.Request.Context(), entry.ID)
		if err != nil {
			h.log.Warn("webhook for unknown instagram account", "account_id", entry.ID)
			continue
		}

		for _, msg := range entry.Messaging {
			if msg.Message.IsEcho || msg.Message.Text == "" {
				continue
			}

			event := models.IncomingEvent{
				ID:          uuid.New().String(),
				Type:        models.EventTypeMessage,
				Channel:     models.ChannelInstagram,
				UserID:      channel.UserID,
				ChannelID:   channel.ID,
				SenderID:    msg.Sender.ID,
				RecipientID: entry.ID,
				MessageID:   msg.Message.MID,
				Text:        msg.Message.Text,
				Timestamp:   msg.Timestamp,
			}

			if err := h.enqueue(c, &event); err != nil {
				return
			}
			queued++
		}
	}

	c.JSON(http.StatusOK, gin.H{"queued": queued})
}

// QueueStats reports the current depth of the three queues
func (h *WebhookHandler) QueueStats(c *gin.Context) {
	ctx := c.Request.Context()

	mainLen, err := h.queue.Len(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	retryLen, err := h.queue.RetryLen(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	deadLen, err := h.queue.DeadLen(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queued":      mainLen,
		"retrying":    retryLen,
		"dead_letter": deadLen,
	})
}

func (h *WebhookHandler) enqueue(c *gin.Context, event *models.IncomingEvent) error {
	payload, err := event.Encode()
	if err != nil {
		h.log.LogError(err, "failed to encode event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode event"})
		return err
	}
	if err := h.queue.Enqueue(c.Request.Context(), payload); err != nil {
		h.log.LogError(err, "failed to enqueue event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue event"})
		return err
	}
	h.log.Info("event queued", "event_id", event.ID, "channel", event.Channel, "type", event.Type)
	return nil
}
