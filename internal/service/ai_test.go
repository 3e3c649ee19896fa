package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/pkg/kv"
)

func TestGenerate_FallbackWithoutAPIKey(t *testing.T) {
	svc := NewAIService(AIConfig{}, kv.NewMemoryStore(), quietLogger())
	user := &models.User{ID: 1, BrandName: "Cafe Haru"}

	result := svc.Generate(context.Background(), "영업시간이 어떻게 되나요?", user)

	assert.Contains(t, fallbackResponses, result.Text)
	assert.Zero(t, result.TokensUsed)
	assert.False(t, result.Cached)
}

func TestGenerate_FallbackIsDeterministic(t *testing.T) {
	svc := NewAIService(AIConfig{}, kv.NewMemoryStore(), quietLogger())
	user := &models.User{ID: 1}

	first := svc.Generate(context.Background(), "같은 메시지", user)
	second := svc.Generate(context.Background(), "같은 메시지", user)

	assert.Equal(t, first.Text, second.Text)
}

func TestGenerate_CacheHit(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := NewAIService(AIConfig{}, store, quietLogger())
	user := &models.User{ID: 7}

	key := "ai_response:" + hashMessage("주차 되나요?", user.ID)
	require.NoError(t, store.Set(ctx, key, "네, 매장 앞 주차 가능합니다!", time.Hour))

	result := svc.Generate(ctx, "주차 되나요?", user)

	assert.True(t, result.Cached)
	assert.Zero(t, result.TokensUsed)
	assert.Equal(t, "네, 매장 앞 주차 가능합니다!", result.Text)
}

func TestGenerate_CacheIsPerUser(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := NewAIService(AIConfig{}, store, quietLogger())

	key := "ai_response:" + hashMessage("주차 되나요?", 7)
	require.NoError(t, store.Set(ctx, key, "cached for user 7", time.Hour))

	result := svc.Generate(ctx, "주차 되나요?", &models.User{ID: 8})

	assert.False(t, result.Cached)
}

func TestFilterBannedWords(t *testing.T) {
	log := quietLogger()

	got := filterBannedWords("최저가 보장! 할인 이벤트 중입니다.", `["최저가","할인"]`, log)
	assert.Equal(t, "*** 보장! *** 이벤트 중입니다.", got)

	// Case-insensitive for latin words
	got = filterBannedWords("Best PRICE here", `["price"]`, log)
	assert.Equal(t, "Best *** here", got)

	// Empty and malformed configs pass text through untouched
	assert.Equal(t, "hello", filterBannedWords("hello", "", log))
	assert.Equal(t, "hello", filterBannedWords("hello", "not json", log))
}

func TestBuildSystemPrompt_IncludesProfile(t *testing.T) {
	user := &models.User{
		BrandName:     "Cafe Haru",
		BusinessHours: "10:00-22:00",
		Address:       "서울시 마포구",
		Description:   "핸드드립 전문 카페",
		AITone:        "professional",
	}

	prompt := buildSystemPrompt(user)
	assert.Contains(t, prompt, "Cafe Haru")
	assert.Contains(t, prompt, "10:00-22:00")
	assert.Contains(t, prompt, "서울시 마포구")
	assert.Contains(t, prompt, "전문적이고 신뢰감 있는 톤")
}

func TestBuildSystemPrompt_DefaultsForMissingFields(t *testing.T) {
	prompt := buildSystemPrompt(&models.User{BrandName: "Shop"})
	assert.Contains(t, prompt, "미설정")
	assert.Contains(t, prompt, "친근하고 따뜻한 톤")
}
