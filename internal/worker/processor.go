// Package worker runs the message processing pipeline: a fixed pool of
// workers draining the main queue, and a periodic sweeper moving failed
// events from the retry queue back for another attempt.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autoreplyx/backend/internal/metrics"
	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/internal/queue"
	"github.com/autoreplyx/backend/internal/repository"
	"github.com/autoreplyx/backend/internal/sender"
	"github.com/autoreplyx/backend/internal/service"
	apperrors "github.com/autoreplyx/backend/pkg/errors"
	"github.com/autoreplyx/backend/pkg/logger"
)

// Drop reasons for events rejected without retry
const (
	dropMalformed       = "malformed"
	dropUserNotFound    = "user_not_found"
	dropChannelNotFound = "channel_not_found"
)

// Config tunes the processor pool
type Config struct {
	PoolSize    int
	PollTimeout time.Duration
	MaxRetries  int
}

// Processor consumes events from the work queue, resolves the owning user
// and channel, runs rule matching and the AI responder, dispatches the
// outbound send, and writes exactly one audit log entry per decoded event.
type Processor struct {
	cfg      Config
	queue    *queue.Queue
	users    repository.UserRepository
	channels repository.ChannelRepository
	logs     repository.MessageLogRepository
	rules    *service.RuleService
	ai       *service.AIService
	senders  *sender.Registry
	metrics  metrics.Collector
	log      *logger.Logger
}

func NewProcessor(
	cfg Config,
	q *queue.Queue,
	users repository.UserRepository,
	channels repository.ChannelRepository,
	logs repository.MessageLogRepository,
	rules *service.RuleService,
	ai *service.AIService,
	senders *sender.Registry,
	collector metrics.Collector,
	log *logger.Logger,
) *Processor {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Processor{
		cfg:      cfg,
		queue:    q,
		users:    users,
		channels: channels,
		logs:     logs,
		rules:    rules,
		ai:       ai,
		senders:  senders,
		metrics:  collector,
		log:      log,
	}
}

// Run starts the worker pool and blocks until the context is cancelled and
// every in-flight message has finished processing.
func (p *Processor) Run(ctx context.Context) {
	p.log.Info("message processor starting", "pool_size", p.cfg.PoolSize, "max_retries", p.cfg.MaxRetries)

	done := make(chan struct{}, p.cfg.PoolSize)
	for i := 0; i < p.cfg.PoolSize; i++ {
		go func(worker int) {
			defer func() { done <- struct{}{} }()
			p.processLoop(ctx, worker)
		}(i)
	}

	for i := 0; i < p.cfg.PoolSize; i++ {
		<-done
	}
	p.log.Info("message processor stopped")
}

// processLoop is one worker's dequeue loop. The blocking pop is bounded by
// the poll timeout so shutdown is noticed promptly; an in-flight message
// always runs to completion.
func (p *Processor) processLoop(ctx context.Context, worker int) {
	log := p.log.WithWorker(worker)
	log.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker exiting")
			return
		default:
		}

		payload, ok, err := p.queue.Dequeue(ctx, p.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.LogError(err, "error in message processing loop")
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		p.Handle(context.WithoutCancel(ctx), payload)
	}
}

// Handle processes a single queue payload, classifying any failure as a
// drop, a retry or a dead letter. It never panics a worker out of its loop.
func (p *Processor) Handle(ctx context.Context, payload string) {
	err := p.process(ctx, payload)
	if err == nil {
		return
	}

	if apperrors.IsPermanent(err) {
		p.log.Warn("dropping unprocessable message", "reason", apperrors.Reason(err), "error", err.Error())
		p.metrics.RecordDropped(apperrors.Reason(err))
		return
	}

	p.log.LogError(err, "failed to process message")
	p.requeue(ctx, payload)
}

// process runs the per-message pipeline for one payload
func (p *Processor) process(ctx context.Context, payload string) error {
	start := time.Now()

	event, err := models.DecodeEnvelope(payload)
	if err != nil {
		return apperrors.Permanent(dropMalformed, err)
	}
	if err := event.Validate(); err != nil {
		return apperrors.Permanent(dropMalformed, err)
	}

	p.log.Info("processing message",
		"event_id", event.ID,
		"type", event.Type,
		"channel", event.Channel,
		"user_id", event.UserID,
	)

	user, err := p.users.FindByID(ctx, event.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Permanentf(dropUserNotFound, "user not found: %d", event.UserID)
	}
	if err != nil {
		return err
	}

	channel, err := p.channels.FindActiveByID(ctx, event.ChannelID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Permanentf(dropChannelNotFound, "channel not found or inactive: %d", event.ChannelID)
	}
	if err != nil {
		return err
	}

	responseText := ""
	responseType := models.ResponseTypeNone
	var matchedRuleID *uint
	aiTokensUsed := 0

	// Messages and comments run through rule matching; mentions are only
	// logged. The AI responder answers direct messages, never comments.
	if event.Type == models.EventTypeMessage || event.Type == models.EventTypeComment {
		rule, err := p.rules.FindMatchingRule(ctx, user.ID, event.Text, event.Channel)
		if err != nil {
			return err
		}

		switch {
		case rule != nil:
			suppressed, err := p.rules.IsInCooldown(ctx, rule.ID, event.SenderID)
			if err != nil {
				return err
			}
			if suppressed {
				p.log.Debug("rule in cooldown for sender", "rule_id", rule.ID, "sender_id", event.SenderID)
				break
			}

			responseText = p.rules.BuildResponse(rule, user)
			responseType = models.ResponseTypeRule
			matchedRuleID = &rule.ID

			// Seconds-to-minutes floor division: a cooldown under 60s
			// becomes zero minutes, i.e. no cooldown at all.
			if err := p.rules.SetCooldown(ctx, rule.ID, event.SenderID, rule.CooldownSeconds/60); err != nil {
				return err
			}
			if err := p.rules.IncrementTriggerCount(ctx, rule.ID); err != nil {
				return err
			}

		case user.AIEnabled && event.Type == models.EventTypeMessage:
			result := p.ai.Generate(ctx, event.Text, user)
			responseText = result.Text
			responseType = models.ResponseTypeAI
			aiTokensUsed = result.TokensUsed
		}
	}

	if responseText != "" {
		if err := p.send(ctx, channel, event, responseText); err != nil {
			// The attempt is still recorded, but as "none"; delivery
			// failure never fails the whole message.
			p.log.LogError(err, "failed to send response", "channel", channel.ChannelType)
			responseType = models.ResponseTypeNone
		}
	}

	elapsed := time.Since(start)

	entry := &models.MessageLog{
		UserID:           user.ID,
		ChannelID:        channel.ID,
		Channel:          event.Channel,
		SenderID:         event.SenderID,
		SenderName:       event.SenderName,
		ReceivedMessage:  event.Text,
		ResponseType:     responseType,
		MatchedRuleID:    matchedRuleID,
		AITokensUsed:     aiTokensUsed,
		ProcessingTimeMs: int(elapsed.Milliseconds()),
	}
	if responseText != "" {
		entry.ResponseMessage = &responseText
	}

	if err := p.logs.Create(ctx, entry); err != nil {
		return err
	}

	p.metrics.RecordProcessed(responseType, elapsed)
	p.log.Info("message processed",
		"event_id", event.ID,
		"response_type", responseType,
		"time_ms", entry.ProcessingTimeMs,
	)
	return nil
}

func (p *Processor) send(ctx context.Context, channel *models.Channel, event *models.IncomingEvent, text string) error {
	out, err := p.senders.ForChannel(channel.ChannelType)
	if err != nil {
		return err
	}

	if event.Type == models.EventTypeComment {
		replier, ok := out.(sender.CommentReplier)
		if !ok {
			return fmt.Errorf("channel %s does not support comment replies", channel.ChannelType)
		}
		return replier.ReplyToComment(ctx, channel.AccessToken, event.MessageID, text)
	}

	return out.SendMessage(ctx, channel.AccessToken, event.SenderID, text)
}

// requeue routes a failed payload to the retry queue with its retry count
// bumped, or to the dead-letter queue once retries are exhausted.
func (p *Processor) requeue(ctx context.Context, payload string) {
	event, err := models.DecodeEnvelope(payload)
	if err != nil {
		// Undecodable payloads cannot track a retry count; park them for
		// inspection instead of cycling forever.
		p.log.LogError(err, "failed to decode payload for retry, dead-lettering")
		if err := p.queue.PushDead(ctx, payload); err != nil {
			p.log.LogError(err, "failed to move message to dead-letter queue")
		}
		p.metrics.RecordDeadLetter()
		return
	}

	if event.RetryCount >= p.cfg.MaxRetries {
		if err := p.queue.PushDead(ctx, payload); err != nil {
			p.log.LogError(err, "failed to move message to dead-letter queue")
			return
		}
		p.metrics.RecordDeadLetter()
		p.log.Warn("message dead-lettered", "event_id", event.ID, "retry_count", event.RetryCount)
		return
	}

	event.RetryCount++
	event.RetryAt = time.Now().UTC().Format(time.RFC3339)

	encoded, err := event.Encode()
	if err != nil {
		p.log.LogError(err, "failed to encode message for retry")
		return
	}
	if err := p.queue.PushRetry(ctx, encoded); err != nil {
		p.log.LogError(err, "failed to move message to retry queue")
		return
	}
	p.metrics.RecordRetry()
	p.log.Info("message queued for retry", "event_id", event.ID, "retry_count", event.RetryCount)
}
