package sender

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func TestInstagramSendMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewInstagramSender(srv.URL, testLogger())
	err := s.SendMessage(context.Background(), "tok-1", "recipient-1", "안녕하세요!")
	require.NoError(t, err)

	assert.Equal(t, "/me/messages", gotPath)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "recipient-1", gotBody["recipient"].(map[string]any)["id"])
	assert.Equal(t, "안녕하세요!", gotBody["message"].(map[string]any)["text"])
}

func TestInstagramSendMessageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	s := NewInstagramSender(srv.URL, testLogger())
	err := s.SendMessage(context.Background(), "tok-1", "recipient-1", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestInstagramReplyToComment(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewInstagramSender(srv.URL, testLogger())
	err := s.ReplyToComment(context.Background(), "tok-1", "comment-42", "감사합니다!")
	require.NoError(t, err)

	assert.Equal(t, "/comment-42/replies", gotPath)
}

func TestRegistryResolvesByChannelType(t *testing.T) {
	log := testLogger()
	reg := NewRegistry(
		NewInstagramSender("http://ig", log),
		NewKakaoSender("http://kakao", log),
		NewNaverSender("http://naver", log),
	)

	s, err := reg.ForChannel(models.ChannelKakao)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelKakao, s.ChannelType())

	_, err = reg.ForChannel("telegram")
	assert.Error(t, err)
}
