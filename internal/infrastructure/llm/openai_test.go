package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/provider"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func positiveSentiment() *domain.SentimentResult {
	return &domain.SentimentResult{
		Sentiment:       domain.SentimentPositive,
		ConfidenceScore: 0.9,
		KeyPhrases:      []string{"fast shipping", "friendly staff"},
	}
}

func TestGenerateUsesCannedResponseWhenUnconfigured(t *testing.T) {
	client := NewOpenAIClient(config.OpenAIConfig{Model: "gpt-4o"}, discardLogger())
	assert.False(t, client.Available())

	tests := []struct {
		sentiment domain.Sentiment
		fragment  string
	}{
		{domain.SentimentPositive, "thrilled"},
		{domain.SentimentNegative, "apologize"},
		{domain.SentimentMixed, "balanced perspective"},
		{domain.SentimentNeutral, "share your thoughts"},
	}

	for _, tt := range tests {
		t.Run(string(tt.sentiment), func(t *testing.T) {
			outcome := client.Generate(context.Background(), "some feedback", &domain.SentimentResult{Sentiment: tt.sentiment})

			require.True(t, outcome.Success)
			assert.Equal(t, provider.ServiceFallback, outcome.ServiceUsed)
			assert.Equal(t, provider.ServiceFallback, outcome.Data.ModelUsed)
			assert.Zero(t, outcome.Data.TokensUsed)
			assert.Contains(t, outcome.Data.ResponseText, tt.fragment)
		})
	}
}

func TestGenerateFallbackWithoutSentiment(t *testing.T) {
	client := NewOpenAIClient(config.OpenAIConfig{}, discardLogger())

	outcome := client.Generate(context.Background(), "some feedback", nil)
	require.True(t, outcome.Success)
	assert.Equal(t, cannedResponses[domain.SentimentNeutral], outcome.Data.ResponseText)
}

func TestGenerateRemote(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"choices": [{"message": {"role": "assistant", "content": "  Thank you for the kind words!  "}}],
			"usage": {"total_tokens": 42}
		}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}, discardLogger())
	require.True(t, client.Available())

	outcome := client.Generate(context.Background(), "Fast shipping and friendly staff!", positiveSentiment())

	require.True(t, outcome.Success)
	assert.Equal(t, "openai", outcome.ServiceUsed)
	assert.Equal(t, "Thank you for the kind words!", outcome.Data.ResponseText)
	assert.Equal(t, "gpt-4o", outcome.Data.ModelUsed)
	assert.Equal(t, 42, outcome.Data.TokensUsed)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Contains(t, captured.Messages[1].Content, "Fast shipping and friendly staff!")
	assert.Contains(t, captured.Messages[1].Content, "positive")
}

func TestGenerateFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}, discardLogger())

	outcome := client.Generate(context.Background(), "anything", positiveSentiment())

	require.True(t, outcome.Success)
	assert.Equal(t, provider.ServiceFallback, outcome.ServiceUsed)
	assert.Equal(t, cannedResponses[domain.SentimentPositive], outcome.Data.ResponseText)
}

func TestGenerateFallsBackOnEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices": []}`)
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}, discardLogger())

	outcome := client.Generate(context.Background(), "anything", positiveSentiment())
	require.True(t, outcome.Success)
	assert.Equal(t, provider.ServiceFallback, outcome.ServiceUsed)
}

func TestBuildPromptIncludesAnalysisContext(t *testing.T) {
	sentiment := positiveSentiment()
	sentiment.KeyPhrases = []string{"a", "b", "c", "d", "e", "f", "g"}
	sentiment.Opinions = []domain.Opinion{
		{
			Target: domain.AspectMention{Text: "shipping"},
			Assessments: []domain.AspectMention{
				{Text: "fast"}, {Text: "reliable"}, {Text: "cheap"},
			},
		},
	}

	prompt := buildPrompt("Great service all around", sentiment)

	assert.Contains(t, prompt, `"Great service all around"`)
	assert.Contains(t, prompt, "positive (confidence: 0.90)")
	assert.Contains(t, prompt, "a, b, c, d, e")
	assert.NotContains(t, prompt, "f, g")
	assert.Contains(t, prompt, "shipping: fast, reliable")
	assert.False(t, strings.Contains(prompt, "cheap"), "assessments past the second should be dropped")
}
