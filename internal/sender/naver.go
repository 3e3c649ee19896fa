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

// NaverSender delivers messages through the Naver TalkTalk chatbot API
type NaverSender struct {
	apiURL     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewNaverSender(apiURL string, log *logger.Logger) *NaverSender {
	return &NaverSender{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (s *NaverSender) ChannelType() string { return models.ChannelNaver }

func (s *NaverSender) SendMessage(ctx context.Context, accessToken, recipientID, text string) error {
	body := map[string]any{
		"event": "send",
		"user":  recipientID,
		"textContent": map[string]any{
			"text": text,
		},
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := s.apiURL + "/chatbot/v1/event"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Authorization", accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("naver send to %s: %w", recipientID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("naver send to %s: status %d: %s", recipientID, resp.StatusCode, string(respBody))
	}

	s.log.Info("naver message sent", "recipient_id", recipientID)
	return nil
}
