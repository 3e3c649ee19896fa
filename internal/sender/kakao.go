package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/pkg/logger"
)

// KakaoSender delivers messages through the Kakao Talk channel API
type KakaoSender struct {
	apiURL     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewKakaoSender(apiURL string, log *logger.Logger) *KakaoSender {
	return &KakaoSender{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (s *KakaoSender) ChannelType() string { return models.ChannelKakao }

func (s *KakaoSender) SendMessage(ctx context.Context, accessToken, recipientID, text string) error {
	body := map[string]any{
		"receiver_id": recipientID,
		"message": map[string]any{
			"type": "text",
			"text": text,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := s.apiURL + "/v1/api/talk/channels/message/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kakao send to %s: %w", recipientID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("kakao send to %s: status %d: %s", recipientID, resp.StatusCode, string(respBody))
	}

	s.log.Info("kakao message sent", "recipient_id", recipientID)
	return nil
}
