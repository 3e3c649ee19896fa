package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/pkg/kv"
	"github.com/autoreplyx/backend/pkg/logger"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// fallbackResponses are returned when no API key is configured or the
// provider fails. The choice is keyed off the message hash so the same
// message always gets the same fallback.
var fallbackResponses = []string{
	"안녕하세요! 문의 주셔서 감사합니다. 잠시 후 담당자가 답변드리겠습니다.",
	"안녕하세요! 문의 내용 확인 후 빠르게 답변드리겠습니다.",
	"감사합니다! 조금만 기다려주시면 자세한 안내 도와드리겠습니다.",
}

// AIResult is the outcome of a generation call
type AIResult struct {
	Text       string
	TokensUsed int
	Cached     bool
}

// AIConfig carries the provider settings for the AI service
type AIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// AIService generates replies through Gemini with a kv-backed response
// cache. It never returns an error: credential or provider failures degrade
// to a fixed fallback string so the processor has no nil-response branch.
type AIService struct {
	cfg        AIConfig
	store      kv.Store
	httpClient *http.Client
	log        *logger.Logger
}

func NewAIService(cfg AIConfig, store kv.Store, log *logger.Logger) *AIService {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AIService{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Generate produces a reply for the message on behalf of the user's
// business profile. Cache hits report zero tokens.
func (s *AIService) Generate(ctx context.Context, message string, user *models.User) AIResult {
	cacheKey := fmt.Sprintf("ai_response:%s", hashMessage(message, user.ID))

	if cached, err := s.store.Get(ctx, cacheKey); err == nil {
		s.log.Debug("ai response cache hit", "user_id", user.ID)
		return AIResult{Text: cached, TokensUsed: 0, Cached: true}
	}

	if s.cfg.APIKey == "" {
		s.log.Warn("gemini api key not configured, using fallback response")
		return AIResult{Text: fallbackFor(message), TokensUsed: 0, Cached: false}
	}

	text, tokens, err := s.callGemini(ctx, message, user)
	if err != nil {
		s.log.LogError(err, "ai response generation failed", "user_id", user.ID)
		return AIResult{Text: fallbackFor(message), TokensUsed: 0, Cached: false}
	}

	text = filterBannedWords(text, user.BannedWords, s.log)

	if err := s.store.Set(ctx, cacheKey, text, s.cfg.CacheTTL); err != nil {
		s.log.LogError(err, "failed to cache ai response")
	}

	s.log.Info("ai response generated", "user_id", user.ID, "tokens", tokens)
	return AIResult{Text: text, TokensUsed: tokens, Cached: false}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (s *AIService) callGemini(ctx context.Context, message string, user *models.User) (string, int, error) {
	prompt := buildSystemPrompt(user) + "\n\n고객 메시지: " + message

	var reqBody geminiRequest
	reqBody.Contents = []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
	reqBody.GenerationConfig.MaxOutputTokens = s.cfg.MaxTokens
	reqBody.GenerationConfig.Temperature = 0.7

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf(geminiAPIURL, s.cfg.Model, s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("gemini returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, parsed.UsageMetadata.TotalTokenCount, nil
}

// buildSystemPrompt assembles the business-profile prompt for the user
func buildSystemPrompt(user *models.User) string {
	businessHours := user.BusinessHours
	if businessHours == "" {
		businessHours = "미설정"
	}
	address := user.Address
	if address == "" {
		address = "미설정"
	}

	return fmt.Sprintf(`당신은 %s의 고객 응대 AI 어시스턴트입니다.

[비즈니스 정보]
- 영업시간: %s
- 주소: %s
- 소개: %s

[응답 규칙]
1. %s
2. 150자 이내로 간결하게 응답하세요.
3. 확실하지 않은 정보는 "확인 후 안내드리겠습니다"라고 응답하세요.
4. 고객의 질문에 직접적으로 답변하세요.
5. 이모지를 적절히 사용해 친근한 느낌을 주세요.`,
		user.BrandName, businessHours, address, user.Description, toneGuide(user.AITone))
}

func toneGuide(tone string) string {
	switch tone {
	case "professional":
		return "전문적이고 신뢰감 있는 톤으로 응답하세요."
	case "formal":
		return "격식을 차린 공손한 톤으로 응답하세요."
	case "casual":
		return "편안하고 캐주얼한 톤으로 응답하세요."
	default:
		return "친근하고 따뜻한 톤으로 응답하세요."
	}
}

// filterBannedWords redacts the user's banned words from the generated text
func filterBannedWords(text, bannedWordsJSON string, log *logger.Logger) string {
	if bannedWordsJSON == "" {
		return text
	}

	var words []string
	if err := json.Unmarshal([]byte(bannedWordsJSON), &words); err != nil {
		log.Warn("failed to parse banned words", "error", err.Error())
		return text
	}

	for _, word := range words {
		if word == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(word))
		if err != nil {
			continue
		}
		text = re.ReplaceAllString(text, "***")
	}
	return text
}

// fallbackFor picks a fallback deterministically from the message text
func fallbackFor(message string) string {
	h := fnv.New32a()
	h.Write([]byte(message))
	return fallbackResponses[h.Sum32()%uint32(len(fallbackResponses))]
}

// hashMessage builds the cache key component for (message, user)
func hashMessage(message string, userID uint) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", message, userID)
	return fmt.Sprintf("%x", h.Sum64())
}
