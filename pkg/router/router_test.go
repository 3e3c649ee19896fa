package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/autoreplyx/backend/internal/api"
	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/internal/queue"
	"github.com/autoreplyx/backend/pkg/config"
	"github.com/autoreplyx/backend/pkg/kv"
	"github.com/autoreplyx/backend/pkg/logger"
)

type stubChannelRepo struct {
	channel *models.Channel
}

func (s *stubChannelRepo) FindActiveByID(ctx context.Context, id uint) (*models.Channel, error) {
	if s.channel != nil && s.channel.ID == id {
		return s.channel, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubChannelRepo) FindByAccountID(ctx context.Context, accountID string) (*models.Channel, error) {
	if s.channel != nil && s.channel.AccountID == accountID {
		return s.channel, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type testEnv struct {
	router *Router
	queue  *queue.Queue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	store := kv.NewMemoryStore()
	q := queue.New(store, "test:queue")

	channels := &stubChannelRepo{channel: &models.Channel{
		ID:          3,
		UserID:      7,
		ChannelType: models.ChannelInstagram,
		AccountID:   "ig-account-1",
		IsActive:    true,
	}}

	handler := api.NewWebhookHandler(q, channels, "verify-secret", log)

	r := New(config.Get(), log)
	r.SetupRoutes(handler, prometheus.NewRegistry())

	return &testEnv{router: r, queue: q}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.Engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookTestEnqueuesEvent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/webhook/test",
		`{"userId":7,"channelId":3,"channel":"instagram","senderId":"S1","text":"가격 문의"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"queued"`)

	ctx := context.Background()
	n, err := env.queue.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	payload, ok, err := env.queue.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)

	event, err := models.DecodeEnvelope(payload)
	require.NoError(t, err)
	assert.True(t, event.IsTest)
	assert.Equal(t, models.EventTypeMessage, event.Type)
	assert.Equal(t, "가격 문의", event.Text)
	assert.NotEmpty(t, event.ID)
	require.NoError(t, event.Validate())
}

func TestWebhookTestRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/webhook/test", `{"userId":7}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	n, _ := env.queue.Len(context.Background())
	assert.Zero(t, n)
}

func TestInstagramVerifyHandshake(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/webhook/instagram?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=12345", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())

	w = env.do(http.MethodGet, "/api/webhook/instagram?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInstagramWebhookQueuesMessages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/webhook/instagram", `{
		"entry": [{
			"id": "ig-account-1",
			"messaging": [
				{"sender": {"id": "S1"}, "timestamp": 1700000000000, "message": {"mid": "m1", "text": "안녕하세요"}},
				{"sender": {"id": "S2"}, "timestamp": 1700000000001, "message": {"mid": "m2", "text": "reply", "is_echo": true}}
			]
		}]
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":1`)

	ctx := context.Background()
	payload, ok, err := env.queue.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)

	event, err := models.DecodeEnvelope(payload)
	require.NoError(t, err)
	assert.Equal(t, uint(7), event.UserID)
	assert.Equal(t, uint(3), event.ChannelID)
	assert.Equal(t, "S1", event.SenderID)
	assert.Equal(t, "m1", event.MessageID)
}

func TestInstagramWebhookSkipsUnknownAccounts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/webhook/instagram", `{
		"entry": [{
			"id": "someone-else",
			"messaging": [{"sender": {"id": "S1"}, "message": {"mid": "m1", "text": "hi"}}]
		}]
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":0`)
}

func TestQueueStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.queue.Enqueue(ctx, "a"))
	require.NoError(t, env.queue.PushRetry(ctx, "b"))
	require.NoError(t, env.queue.PushDead(ctx, "c"))

	w := env.do(http.MethodGet, "/api/queue/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":1`)
	assert.Contains(t, w.Body.String(), `"retrying":1`)
	assert.Contains(t, w.Body.String(), `"dead_letter":1`)
}
