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

// InstagramSender delivers DMs and comment replies through the Instagram
// Graph API.
type InstagramSender struct {
	apiURL     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewInstagramSender(apiURL string, log *logger.Logger) *InstagramSender {
	return &InstagramSender{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (s *InstagramSender) ChannelType() string { return models.ChannelInstagram }

// SendMessage sends a direct message to the recipient
func (s *InstagramSender) SendMessage(ctx context.Context, accessToken, recipientID, text string) error {
	body := map[string]any{
		"recipient": map[string]any{"id": recipientID},
		"message":   map[string]any{"text": text},
	}

	if err := s.post(ctx, s.apiURL+"/me/messages", accessToken, body); err != nil {
		return fmt.Errorf("instagram send to %s: %w", recipientID, err)
	}

	s.log.Info("instagram message sent", "recipient_id", recipientID)
	return nil
}

// ReplyToComment posts a reply under an Instagram comment
func (s *InstagramSender) ReplyToComment(ctx context.Context, accessToken, commentID, text string) error {
	body := map[string]any{"message": text}

	if err := s.post(ctx, s.apiURL+"/"+commentID+"/replies", accessToken, body); err != nil {
		return fmt.Errorf("instagram comment reply to %s: %w", commentID, err)
	}

	s.log.Info("instagram comment reply sent", "comment_id", commentID)
	return nil
}

func (s *InstagramSender) post(ctx context.Context, url, accessToken string, body map[string]any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
